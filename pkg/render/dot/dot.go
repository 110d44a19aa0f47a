package dot

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds constructor arguments and recorded params to labels.
	Detailed bool
}

// stage is what a node shows.
type stage struct {
	name    string
	p       any
	args    map[string]any
	params  map[string]any
	applied *bool
}

// ToDOT draws a recorded run.
func ToDOT(saved *pipeline.Saved, opts Options) string {
	stages := make([]stage, len(saved.Transforms))
	for i, st := range saved.Transforms {
		applied := st.Applied
		stages[i] = stage{
			name:    st.Name(),
			p:       st.Transform[registry.KeyP],
			args:    initArgs(st.Transform),
			params:  recorded(st.Params, saved.SaveKey),
			applied: &applied,
		}
	}
	return render(fmt.Sprintf("p=%v", saved.P), stages, opts)
}

// FromSpec draws a pipeline that has not run.
func FromSpec(spec *pipeline.Spec, opts Options) string {
	stages := make([]stage, len(spec.Transforms))
	for i, ts := range spec.Transforms {
		var p any = registry.DefaultP
		if ts.P != nil {
			p = *ts.P
		}
		if ts.AlwaysApply {
			p = "always"
		}
		stages[i] = stage{name: ts.Name, p: p, args: ts.Args}
	}
	title := fmt.Sprintf("p=%v", spec.Probability())
	if spec.Name != "" {
		title = spec.Name + "\n" + title
	}
	return render(title, stages, opts)
}

func render(title string, stages []stage, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph pipeline {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  input [label=%q, shape=ellipse];\n", "input\n"+title)
	fmt.Fprintf(&buf, "  output [label=%q, shape=ellipse];\n", "output")

	prev := "input"
	for i, s := range stages {
		id := "s" + strconv.Itoa(i)
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(attrs(s, opts.Detailed), ", "))
		fmt.Fprintf(&buf, "  %s -> %s;\n", prev, id)
		prev = id
	}
	fmt.Fprintf(&buf, "  %s -> output;\n", prev)
	buf.WriteString("}\n")
	return buf.String()
}

func attrs(s stage, detailed bool) []string {
	lines := []string{s.name, fmt.Sprintf("p: %v", s.p)}
	if detailed {
		lines = append(lines, fmtMap(s.args)...)
		if len(s.params) > 0 {
			lines = append(lines, "--")
			lines = append(lines, fmtMap(s.params)...)
		}
	}
	a := []string{fmt.Sprintf("label=%q", strings.Join(lines, "\n"))}
	switch {
	case s.applied == nil:
	case *s.applied:
		a = append(a, "fillcolor=palegreen")
	default:
		a = append(a, "style=\"rounded,dashed\"", "fontcolor=grey40")
	}
	return a
}

func fmtMap(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return out
}

// initArgs drops the description header, leaving constructor arguments.
func initArgs(d map[string]any) map[string]any {
	out := maps.Clone(d)
	for _, k := range []string{registry.KeyClass, registry.KeyP, registry.KeyAlwaysApply, registry.KeyID, registry.KeyAdditionalTargets} {
		delete(out, k)
	}
	return out
}

// recorded drops the reverse-args entry from a record.
func recorded(p map[string]any, saveKey string) map[string]any {
	out := maps.Clone(p)
	delete(out, saveKey)
	return out
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
