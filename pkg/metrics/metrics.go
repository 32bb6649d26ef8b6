// Package metrics holds the Prometheus collectors shared by the locus packages.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OpEncode = "encode"
	OpDecode = "decode"
	OpSkip   = "skip"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	// FramesTotal counts record frames by codec operation
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locus_codec_frames_total",
			Help: "Total number of record frames processed",
		},
		[]string{"op"},
	)

	// CorruptFramesTotal counts frames rejected because of a bad header or truncation
	CorruptFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locus_codec_corrupt_frames_total",
			Help: "Total number of corrupt record frames",
		},
	)

	// GeodesicCacheTotal counts solver cache lookups
	GeodesicCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locus_geodesic_cache_total",
			Help: "Total number of geodesic solver cache lookups",
		},
		[]string{"result"},
	)

	// JournalAppendsTotal counts entries appended to journals
	JournalAppendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locus_journal_appends_total",
			Help: "Total number of journal entries appended",
		},
	)
)

// WriteSummary prints every locus metric with its labels and current value
func WriteSummary(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "locus_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, v))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
