package detect_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digidub/internal/detect"
	"digidub/internal/media"
)

func TestFilters(t *testing.T) {
	assert.Equal(t, "silencedetect=n=-35dB:d=0.4", detect.DefaultSilenceOptions().Filter())
	assert.Equal(t, "blackdetect=d=0.4:pix_th=0.05", detect.DefaultBlackOptions().Filter())
	assert.Equal(t, "silencedetect=n=-50.5dB:d=1", detect.SilenceOptions{NoiseDB: -50.5, MinDuration: 1}.Filter())
}

func TestParseSilences(t *testing.T) {
	output := strings.Join([]string{
		"Input #0, matroska,webm, from 'movie.mkv':",
		"[silencedetect @ 0x55d0c8] silence_start: -0.0213",
		"[silencedetect @ 0x55d0c8] silence_end: 1.504 | silence_duration: 1.525",
		"size=N/A time=00:00:10.00 bitrate=N/A speed= 100x",
		"[silencedetect @ 0x55d0c8] silence_start: 12.345",
		"[silencedetect @ 0x55d0c8] silence_end: 14.789 | silence_duration: 2.444",
		"[silencedetect @ 0x55d0c8] silence_start: 3600.5",
	}, "\n")

	silences, err := detect.ParseSilences(strings.NewReader(output))
	require.NoError(t, err)
	require.Len(t, silences, 3)
	assert.Equal(t, media.Interval{Start: 0, End: 1.504}, silences[0])
	assert.Equal(t, media.Interval{Start: 12.345, End: 14.789}, silences[1])
	assert.Equal(t, 3600.5, silences[2].Start)
	assert.True(t, math.IsInf(silences[2].End, 1), "unterminated silence runs to the end")
}

func TestParseSilencesEmptyIsNonNil(t *testing.T) {
	silences, err := detect.ParseSilences(strings.NewReader("no detector lines here\n"))
	require.NoError(t, err)
	assert.NotNil(t, silences)
	assert.Empty(t, silences)
}

func TestParseBlackFrames(t *testing.T) {
	output := "[blackdetect @ 0x1] black_start:0 black_end:0.44 black_duration:0.44\n" +
		"frame=  100 fps=0.0 q=-0.0 size=N/A\n" +
		"[blackdetect @ 0x1] black_start:1312.48 black_end:1314.2 black_duration:1.72\n"

	windows, err := detect.ParseBlackFrames(strings.NewReader(output))
	require.NoError(t, err)
	assert.Equal(t, []media.Interval{{Start: 0, End: 0.44}, {Start: 1312.48, End: 1314.2}}, windows)
}

func TestParseSceneChanges(t *testing.T) {
	output := "[scdet @ 000001a1ba65ef00] lavfi.scd.score: 10.525, lavfi.scd.time: 45.167\n" +
		"[scdet @ 000001a1ba65ef00] lavfi.scd.score: 61.000, lavfi.scd.time: 90.09\n" +
		"[Parsed_scdet_0 @ 0x2] unrelated line\n"

	changes, err := detect.ParseSceneChanges(strings.NewReader(output))
	require.NoError(t, err)
	assert.Equal(t, []media.SceneChange{{Time: 45.167, Score: 10.525}, {Time: 90.09, Score: 61}}, changes)
}
