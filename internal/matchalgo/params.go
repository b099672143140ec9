package matchalgo

import (
	"errors"
	"fmt"
	"math"
)

// Tuning defaults. Most were found empirically on broadcast material and
// are exposed through Parameters for per-content adjustment.
const (
	DefaultFrameUnmatchThreshold     = 21
	DefaultFrameRematchThreshold     = 16
	DefaultAreaMatchThreshold        = 20.0
	DefaultSceneChangeScoreThreshold = 0.0
	DefaultMinSceneFrameCount        = 7
	DefaultMinSpeedRatio             = 0.95
	DefaultMaxSpeedRatio             = 1.05
	DefaultBorderSilenceFrames       = 10
	DefaultAnchorWindowFrames        = 5
	DefaultSearchSlackMinFrames      = 3
	DefaultSearchSlackDivisor        = 20
	DefaultLookaheadFrames           = 4
	DefaultAnchorSceneCount          = 3
)

// MaxHashDistance is the distance between two fully different 64-bit hashes.
const MaxHashDistance = 64

// Parameters configures a matching run. The algorithm never mutates them.
type Parameters struct {
	// FrameUnmatchThreshold is the hash distance at or above which two
	// frames stop being considered the same while walking a match end.
	FrameUnmatchThreshold int
	// FrameRematchThreshold bounds the distance accepted when resyncing
	// inside the lookahead window.
	FrameRematchThreshold int
	// AreaMatchThreshold is the maximum mean distance of an accepted area match.
	AreaMatchThreshold float64
	// SceneChangeScoreThreshold filters scene-change events by score.
	SceneChangeScoreThreshold float64
	// MinSceneFrameCount is the shortest scene kept by the scene merge.
	MinSceneFrameCount int
	// MinSpeedRatio and MaxSpeedRatio bound the plausible secondary/primary
	// playback speed used to size scene searches.
	MinSpeedRatio float64
	MaxSpeedRatio float64
	// BorderSilenceFrames is the lookahead at each catalog end used to
	// extend nearby silence to the boundary.
	BorderSilenceFrames int
	// AnchorWindowFrames is the half width of the window straddling a scene change.
	AnchorWindowFrames int
	// SearchSlackMinFrames and SearchSlackDivisor size the slack added to
	// scene search windows: max(size/divisor, min).
	SearchSlackMinFrames int
	SearchSlackDivisor   int
	// LookaheadFrames is the window searched for a resync pair.
	LookaheadFrames int
	// AnchorSceneCount is how many scenes at each end of a chain bound the
	// anchor search. Shorter chains of three or more scenes use all of them.
	AnchorSceneCount int
}

// DefaultParameters returns the documented defaults.
func DefaultParameters() Parameters {
	return Parameters{
		FrameUnmatchThreshold:     DefaultFrameUnmatchThreshold,
		FrameRematchThreshold:     DefaultFrameRematchThreshold,
		AreaMatchThreshold:        DefaultAreaMatchThreshold,
		SceneChangeScoreThreshold: DefaultSceneChangeScoreThreshold,
		MinSceneFrameCount:        DefaultMinSceneFrameCount,
		MinSpeedRatio:             DefaultMinSpeedRatio,
		MaxSpeedRatio:             DefaultMaxSpeedRatio,
		BorderSilenceFrames:       DefaultBorderSilenceFrames,
		AnchorWindowFrames:        DefaultAnchorWindowFrames,
		SearchSlackMinFrames:      DefaultSearchSlackMinFrames,
		SearchSlackDivisor:        DefaultSearchSlackDivisor,
		LookaheadFrames:           DefaultLookaheadFrames,
		AnchorSceneCount:          DefaultAnchorSceneCount,
	}
}

// Validate reports the first inconsistent parameter.
func (p Parameters) Validate() error {
	if p.FrameUnmatchThreshold <= 0 || p.FrameUnmatchThreshold > MaxHashDistance {
		return fmt.Errorf("frame unmatch threshold must be in 1..%d, got %d", MaxHashDistance, p.FrameUnmatchThreshold)
	}
	if p.FrameRematchThreshold <= 0 || p.FrameRematchThreshold > MaxHashDistance {
		return fmt.Errorf("frame rematch threshold must be in 1..%d, got %d", MaxHashDistance, p.FrameRematchThreshold)
	}
	if math.IsNaN(p.AreaMatchThreshold) || p.AreaMatchThreshold < 0 || p.AreaMatchThreshold > MaxHashDistance {
		return fmt.Errorf("area match threshold must be in 0..%d, got %v", MaxHashDistance, p.AreaMatchThreshold)
	}
	if math.IsNaN(p.SceneChangeScoreThreshold) || p.SceneChangeScoreThreshold < 0 {
		return errors.New("scene change score threshold must be non-negative")
	}
	if p.MinSceneFrameCount < 1 {
		return errors.New("min scene frame count must be positive")
	}
	if !(p.MinSpeedRatio > 0 && p.MinSpeedRatio <= 1 && p.MaxSpeedRatio >= 1) {
		return fmt.Errorf("speed ratio range [%v, %v] must straddle 1", p.MinSpeedRatio, p.MaxSpeedRatio)
	}
	if p.BorderSilenceFrames < 0 {
		return errors.New("border silence frames must not be negative")
	}
	if p.AnchorWindowFrames < 1 || p.LookaheadFrames < 1 {
		return errors.New("anchor window and lookahead must be positive")
	}
	if p.SearchSlackMinFrames < 0 || p.SearchSlackDivisor < 1 {
		return errors.New("search slack must use a non-negative minimum and a positive divisor")
	}
	if p.AnchorSceneCount < 2 {
		return errors.New("anchor scene count must be at least 2")
	}
	return nil
}

func (p Parameters) slack(size int) int {
	return max(size/p.SearchSlackDivisor, p.SearchSlackMinFrames)
}

// speedFrameRange returns the plausible frame counts [lo, hi] of a scene of
// n frames played at a speed inside the ratio bounds.
func (p Parameters) speedFrameRange(n int) (int, int) {
	lo := int(math.Ceil(float64(n) * p.MinSpeedRatio))
	hi := int(math.Floor(float64(n) * p.MaxSpeedRatio))
	return lo, hi
}
