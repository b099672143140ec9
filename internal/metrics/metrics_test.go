package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digidub/internal/matchalgo"
	"digidub/internal/media"
)

func TestObserverCounters(t *testing.T) {
	r := NewRecorder()

	r.ObserveSegment(matchalgo.SegmentMatched)
	r.ObserveSegment(matchalgo.SegmentMatched)
	r.ObserveSegment(matchalgo.SegmentUnmatched)
	r.ObserveRefinement(matchalgo.RefineAnchored)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.segmentsTotal.WithLabelValues("matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.segmentsTotal.WithLabelValues("unmatched")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.segmentsTotal.WithLabelValues("excluded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.refinementsTotal.WithLabelValues("anchored")))
}

func TestObserveRun(t *testing.T) {
	r := NewRecorder()
	matches := []media.VideoMatch{
		{A: media.Between(0, 4000), B: media.Between(1000, 5000)},
		{A: media.Between(6000, 8000), B: media.Between(7000, 9000)},
	}

	r.ObserveRun(1500*time.Millisecond, matches, 10000)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.matchesTotal))
	assert.InDelta(t, 0.6, testutil.ToFloat64(r.matchedRatio), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(r.runSeconds))

	r.ObserveRun(time.Second, nil, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.matchedRatio))
}

func TestMatchedRatio(t *testing.T) {
	matches := []media.VideoMatch{
		{A: media.Between(0, 400), B: media.Between(0, 400)},
		{A: media.Between(600, 1000), B: media.Between(600, 1000)},
	}
	assert.InDelta(t, 0.8, MatchedRatio(matches, 1000), 1e-9)
	assert.Equal(t, 1.0, MatchedRatio(matches, 500))
	assert.Equal(t, 0.0, MatchedRatio(matches, -1))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveSegment(matchalgo.SegmentExcluded)
	r.ObserveRun(time.Second, []media.VideoMatch{{A: media.Between(0, 500), B: media.Between(0, 500)}}, 1000)

	path := filepath.Join(t.TempDir(), "textfile", "digidub.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `digidub_segments_total{result="excluded"} 1`), text)
	assert.Contains(t, text, "digidub_matches_total 1")
	assert.Contains(t, text, "digidub_matched_ratio 0.5")
	assert.Contains(t, text, "digidub_match_run_seconds_count 1")
}
