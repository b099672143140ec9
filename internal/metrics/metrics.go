// Package metrics records match-run statistics with Prometheus collectors
// and writes them as a node-exporter textfile, since digidub runs as a
// short-lived command rather than a scrapeable service.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"digidub/internal/matchalgo"
	"digidub/internal/media"
)

// Recorder owns a private registry so several runs in one process (tests,
// batch mode) never collide on the default registry.
type Recorder struct {
	registry *prometheus.Registry

	segmentsTotal    *prometheus.CounterVec
	matchesTotal     prometheus.Counter
	refinementsTotal *prometheus.CounterVec
	runSeconds       prometheus.Histogram
	matchedRatio     prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		segmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digidub_segments_total",
			Help: "Primary segments processed, by result",
		}, []string{"result"}),
		matchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "digidub_matches_total",
			Help: "Matches emitted",
		}),
		refinementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digidub_refinements_total",
			Help: "Match refinements, by outcome",
		}, []string{"outcome"}),
		runSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "digidub_match_run_seconds",
			Help:    "Wall time of a match run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
		}),
		matchedRatio: factory.NewGauge(prometheus.GaugeOpts{
			Name: "digidub_matched_ratio",
			Help: "Share of the primary duration covered by matches in the last run",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveSegment implements matchalgo.Observer.
func (r *Recorder) ObserveSegment(result matchalgo.SegmentResult) {
	r.segmentsTotal.WithLabelValues(result.String()).Inc()
}

// ObserveRefinement implements matchalgo.Observer.
func (r *Recorder) ObserveRefinement(outcome matchalgo.RefineOutcome) {
	r.refinementsTotal.WithLabelValues(outcome.String()).Inc()
}

// ObserveRun records the outcome of a complete run over a primary video of
// primaryDuration milliseconds.
func (r *Recorder) ObserveRun(elapsed time.Duration, matches []media.VideoMatch, primaryDuration int64) {
	r.runSeconds.Observe(elapsed.Seconds())
	r.matchesTotal.Add(float64(len(matches)))
	r.matchedRatio.Set(MatchedRatio(matches, primaryDuration))
}

// MatchedRatio returns the share of primaryDuration covered by the primary
// side of matches, capped at 1.
func MatchedRatio(matches []media.VideoMatch, primaryDuration int64) float64 {
	if primaryDuration <= 0 {
		return 0
	}
	var covered int64
	for _, m := range matches {
		covered += m.A.Duration()
	}
	return min(float64(covered)/float64(primaryDuration), 1)
}

// WriteTextfile writes the registry in the text exposition format. The
// file is replaced atomically so a collector never reads a partial write.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

var _ matchalgo.Observer = (*Recorder)(nil)
