package prom

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/augment/pkg/errors"
	"github.com/matzehuels/augment/pkg/observability"
)

func TestMetricsCountHooks(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Install()
	defer observability.Reset()
	ctx := context.Background()

	observability.Transforms().OnApply("geometric.HorizontalFlip", "id", true)
	observability.Transforms().OnApply("geometric.HorizontalFlip", "id", false)
	observability.Transforms().OnApply("geometric.HorizontalFlip", "id", true)
	observability.Transforms().OnReverse("color.RandomBrightness", errors.New(errors.ErrCodeNotImplemented, "no"))
	observability.Cache().OnCacheHit(ctx, "replay")
	observability.Cache().OnCacheSet(ctx, "replay", 120)
	observability.HTTP().OnResponse(ctx, "POST", "/v1/apply", 200, time.Millisecond)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"fired", m.Applications.WithLabelValues("geometric.HorizontalFlip", "fired"), 2},
		{"skipped", m.Applications.WithLabelValues("geometric.HorizontalFlip", "skipped"), 1},
		{"reverse code", m.Reversals.WithLabelValues("color.RandomBrightness", "NOT_IMPLEMENTED"), 1},
		{"cache hit", m.CacheLookups.WithLabelValues("replay", "hit"), 1},
		{"cache bytes", m.CacheBytes.WithLabelValues("replay"), 120},
		{"requests", m.Requests.WithLabelValues("POST", "/v1/apply", "200"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
