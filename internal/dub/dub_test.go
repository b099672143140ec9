package dub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digidub/internal/dub"
	"digidub/internal/media"
)

func TestComputeNoMatches(t *testing.T) {
	segs := dub.Compute(nil, 90_000)
	require.Len(t, segs, 1)
	assert.Equal(t, dub.SourcePrimary, segs[0].SourceID)
	assert.Equal(t, media.Between(0, 90_000), segs[0].Output)
	assert.Equal(t, segs[0].Output, segs[0].Source)
	require.NoError(t, dub.Validate(segs, 90_000))
}

func TestComputeFillsGaps(t *testing.T) {
	matches := []media.VideoMatch{
		{A: media.Between(1_000, 5_000), B: media.Between(1_200, 5_100)},
		{A: media.Between(5_000, 9_000), B: media.Between(5_300, 9_500)},
		{A: media.Between(12_000, 12_000), B: media.Between(13_000, 13_000)},
		{A: media.Between(15_000, 20_000), B: media.Between(16_000, 21_000)},
	}
	require.NoError(t, dub.CheckMatches(matches))

	segs := dub.Compute(matches, 25_000)
	want := []dub.OutputSegment{
		{Output: media.Between(0, 1_000), SourceID: dub.SourcePrimary, Source: media.Between(0, 1_000)},
		{Output: media.Between(1_000, 5_000), SourceID: dub.SourceSecondary, Source: media.Between(1_200, 5_100)},
		{Output: media.Between(5_000, 9_000), SourceID: dub.SourceSecondary, Source: media.Between(5_300, 9_500)},
		{Output: media.Between(9_000, 12_000), SourceID: dub.SourcePrimary, Source: media.Between(9_000, 12_000)},
		{Output: media.Between(12_000, 15_000), SourceID: dub.SourcePrimary, Source: media.Between(12_000, 15_000)},
		{Output: media.Between(15_000, 20_000), SourceID: dub.SourceSecondary, Source: media.Between(16_000, 21_000)},
		{Output: media.Between(20_000, 25_000), SourceID: dub.SourcePrimary, Source: media.Between(20_000, 25_000)},
	}
	assert.Equal(t, want, segs)
	assert.NoError(t, dub.Validate(segs, 25_000))
	assert.InDelta(t, 1.05, segs[2].Stretch(), 1e-9)
	assert.InDelta(t, 1.0, segs[0].Stretch(), 1e-9)
}

func TestComputeClipsToDuration(t *testing.T) {
	matches := []media.VideoMatch{
		{A: media.Between(0, 8_000), B: media.Between(0, 8_000)},
		{A: media.Between(9_000, 12_000), B: media.Between(9_000, 12_000)},
	}
	segs := dub.Compute(matches, 7_500)
	require.Len(t, segs, 1)
	assert.Equal(t, media.Between(0, 7_500), segs[0].Output)
	assert.NoError(t, dub.Validate(segs, 7_500))
}

func TestComputeAlwaysTiles(t *testing.T) {
	for n := 0; n < 40; n++ {
		var matches []media.VideoMatch
		cursor := int64(0)
		for i := 0; i < n; i++ {
			gap := int64((i * 7919) % 3 * 500)
			length := int64((i*104729)%5) * 400
			start := cursor + gap
			matches = append(matches, media.VideoMatch{
				A: media.Between(start, start+length),
				B: media.Between(start+100, start+100+length),
			})
			cursor = start + length
		}
		duration := cursor + int64(n%2)*1000
		segs := dub.Compute(matches, duration)
		require.NoError(t, dub.Validate(segs, duration), "n=%d", n)

		total := int64(0)
		for _, s := range segs {
			total += s.Output.Duration()
		}
		assert.Equal(t, duration, total, "n=%d", n)
	}
}

func TestCheckMatchesRejectsOverlap(t *testing.T) {
	err := dub.CheckMatches([]media.VideoMatch{
		{A: media.Between(0, 5_000)},
		{A: media.Between(4_000, 6_000)},
	})
	assert.ErrorIs(t, err, dub.ErrUnsortedMatches)

	err = dub.CheckMatches([]media.VideoMatch{{A: media.Between(5_000, 4_000)}})
	assert.ErrorIs(t, err, dub.ErrUnsortedMatches)
}

func TestValidateDetectsGap(t *testing.T) {
	segs := []dub.OutputSegment{
		{Output: media.Between(0, 1_000)},
		{Output: media.Between(1_500, 2_000)},
	}
	assert.ErrorIs(t, dub.Validate(segs, 2_000), dub.ErrNotTiled)
	assert.ErrorIs(t, dub.Validate(segs[:1], 2_000), dub.ErrNotTiled)
}
