package matchalgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDistance(t *testing.T) {
	assert.Equal(t, 0, HashDistance(0xdeadbeef, 0xdeadbeef))
	assert.Equal(t, 64, HashDistance(0, ^uint64(0)))
	assert.Equal(t, 3, HashDistance(0b1011, 0b0000))
}

func TestFindBestMatchingAreaExactSubspan(t *testing.T) {
	hb := randomHashes(30, 200)
	b := testVideo("b", hb)
	a := testVideo("a", concat(randomHashes(31, 10), hb[70:110]))

	pattern := NewSpan(a, 10, 40)
	got := FindBestMatchingArea(pattern, b.All())
	assert.Zero(t, got.Score)
	assert.True(t, got.Match.Equal(NewSpan(b, 70, 40)))
	assert.True(t, got.Pattern.Equal(pattern))

	again := FindBestMatchingArea(pattern, b.All())
	assert.Equal(t, got, again)
}

func TestFindBestMatchingAreaMeanScore(t *testing.T) {
	hb := randomHashes(32, 300)
	ha := make([]uint64, 50)
	for i := range ha {
		ha[i] = flipBits(hb[120+i], 3+i%2)
	}
	a := testVideo("a", ha)
	b := testVideo("b", hb)

	got := FindBestMatchingArea(a.All(), b.All())
	assert.InDelta(t, 3.5, got.Score, 1e-9)
	assert.True(t, got.Match.Equal(NewSpan(b, 120, 50)))
}

func TestFindBestMatchingAreaSentinel(t *testing.T) {
	a := testVideo("a", randomHashes(33, 20))
	b := testVideo("b", randomHashes(34, 100))

	area := NewSpan(b, 40, 10)
	got := FindBestMatchingArea(a.All(), area)
	require.Equal(t, float64(MaxHashDistance), got.Score)
	assert.True(t, got.Match.Empty())
	assert.Equal(t, area.End(), got.Match.Start())

	got = FindBestMatchingArea(NewSpan(a, 0, 0), area)
	assert.Equal(t, float64(MaxHashDistance), got.Score)
}

func TestFindBestPairPrefersDiagonal(t *testing.T) {
	h := randomHashes(35, 8)
	a := testVideo("a", h[:4])
	b := testVideo("b", concat(h[4:5], h[:4]))

	x, y, ok := findBestPair(a.All(), b.All(), 16)
	require.True(t, ok)
	assert.Equal(t, 0, x)
	assert.Equal(t, 1, y)

	c := testVideo("c", randomHashes(36, 4))
	_, _, ok = findBestPair(a.All(), c.All(), 16)
	assert.False(t, ok)
}
