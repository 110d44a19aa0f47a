package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// StageListModel - Interactive inspection of a recorded run
// =============================================================================

// StageListModel is the bubbletea model for browsing the stages of a
// recorded run. The selected stage's arguments and params are shown below
// the list.
type StageListModel struct {
	Saved  *pipeline.Saved
	Cursor int
	Height int
	Offset int
}

// NewStageListModel creates a new stage list model.
func NewStageListModel(saved *pipeline.Saved) StageListModel {
	return StageListModel{Saved: saved, Height: 10}
}

func (m StageListModel) Init() tea.Cmd {
	return nil
}

func (m StageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Saved.Transforms)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(n-1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 3)
	}

	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m StageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Recorded run · p=%v · %d/%d applied", m.Saved.P, m.Saved.Applied(), len(m.Saved.Transforms))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Saved.Transforms))
	for i := m.Offset; i < end; i++ {
		st := m.Saved.Transforms[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := StyleDim.Render(iconSkipped)
		if st.Applied {
			mark = StyleSuccess.Render(iconSuccess)
		}
		line := fmt.Sprintf("%s%s %2d  %s", cursor, mark, i, st.Name())

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case st.Applied:
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.Saved.Transforms) > 0 {
		b.WriteString("\n")
		b.WriteString(detailBoxStyle.Render(m.detail(m.Saved.Transforms[m.Cursor])))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Saved.Transforms))))

	return b.String()
}

func (m StageListModel) detail(st pipeline.SavedTransform) string {
	var lines []string
	lines = append(lines, StyleTitle.Render(st.Name()))
	for _, k := range slices.Sorted(maps.Keys(st.Transform)) {
		if k == registry.KeyClass {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %v", StyleDim.Render(k+":"), st.Transform[k]))
	}
	if st.Applied {
		lines = append(lines, StyleDim.Render("params: ")+formatParams(st.Params, m.Saved.SaveKey))
	} else {
		lines = append(lines, StyleDim.Render("not applied"))
	}
	return strings.Join(lines, "\n")
}

// formatParams renders params as sorted k=v pairs, leaving out the
// recording container.
func formatParams(p map[string]any, saveKey string) string {
	if len(p) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(p))
	for _, k := range slices.Sorted(maps.Keys(p)) {
		if k == saveKey {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(p[k])))
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.4g", f)
	}
	return fmt.Sprint(v)
}
