package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digidub/internal/media"
)

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:         "0:00.000",
		5_007:     "0:05.007",
		62_500:    "1:02.500",
		3_723_040: "1:02:03.040",
	}
	for in, want := range cases {
		assert.Equal(t, want, media.FormatDuration(in), "msecs=%d", in)
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]int64{
		"":            0,
		"12":          12_000,
		"12.5":        12_500,
		"1:02.500":    62_500,
		"01:02:03.04": 3_723_040,
	}
	for in, want := range cases {
		got, err := media.ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"a", "1:2:3:4", "-1", "x:10"} {
		_, err := media.ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeSegmentText(t *testing.T) {
	seg := media.Between(62_500, 3_723_040)
	assert.Equal(t, "1:02.500-1:02:03.040", seg.String())

	parsed, err := media.ParseTimeSegment(seg.String())
	require.NoError(t, err)
	assert.Equal(t, seg, parsed)

	_, err = media.ParseTimeSegment("5-1")
	assert.Error(t, err)
	_, err = media.ParseTimeSegment("5")
	assert.Error(t, err)
}

func TestTimeSegmentContains(t *testing.T) {
	seg := media.Between(100, 200)
	assert.True(t, seg.Contains(100))
	assert.True(t, seg.Contains(199))
	assert.False(t, seg.Contains(200))
	assert.Equal(t, int64(100), seg.Duration())
}

func TestRational(t *testing.T) {
	r, err := media.ParseRational("25/1")
	require.NoError(t, err)
	assert.InDelta(t, 0.04, r.FrameDelta(), 1e-12)

	r, err = media.ParseRational("30")
	require.NoError(t, err)
	assert.Equal(t, media.Rational{Num: 30, Den: 1}, r)

	assert.Zero(t, media.Rational{}.FrameDelta())
	_, err = media.ParseRational("x/1")
	assert.Error(t, err)
}
