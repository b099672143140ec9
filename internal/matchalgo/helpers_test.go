package matchalgo

import (
	"math/rand/v2"

	"digidub/internal/media"
)

var testRate = media.Rational{Num: 25, Den: 1}

func randomHashes(seed uint64, n int) []uint64 {
	r := rand.New(rand.NewPCG(seed, seed*0x9e3779b97f4a7c15+1))
	out := make([]uint64, n)
	for i := range out {
		out[i] = r.Uint64()
	}
	return out
}

func frameInfos(hashes []uint64) []media.FrameInfo {
	out := make([]media.FrameInfo, len(hashes))
	for i, h := range hashes {
		out[i] = media.FrameInfo{PTS: int64(i), PHash: h}
	}
	return out
}

func testVideo(name string, hashes []uint64) *Video {
	v, err := NewVideo(name, testRate.FrameDelta(), frameInfos(hashes))
	if err != nil {
		panic(err)
	}
	return v
}

// testSource returns a source with every detector result present and empty.
func testSource(name string, hashes []uint64) *media.Source {
	return &media.Source{
		Path:         name,
		FrameRate:    testRate,
		Frames:       frameInfos(hashes),
		Silences:     []media.Interval{},
		BlackFrames:  []media.Interval{},
		SceneChanges: []media.SceneChange{},
	}
}

// sceneChangesAt returns events landing exactly on the given frames.
func sceneChangesAt(frames ...int) []media.SceneChange {
	out := make([]media.SceneChange, len(frames))
	for i, f := range frames {
		out[i] = media.SceneChange{Time: float64(f) * testRate.FrameDelta(), Score: 10}
	}
	return out
}

func concat(parts ...[]uint64) []uint64 {
	var out []uint64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func repeatHash(h uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = h
	}
	return out
}

// flipBits returns h with its lowest n bits inverted.
func flipBits(h uint64, n int) uint64 {
	if n >= 64 {
		return ^h
	}
	return h ^ (uint64(1)<<n - 1)
}
