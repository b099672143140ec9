// Package matchalgo aligns a primary video with a secondary recording of the
// same footage using per-frame perceptual hashes.
//
// The primary catalog is stamped with silence, black-frame and scene-change
// boundaries, cut into segments, and each segment is matched scene by scene
// against a monotonically advancing window of the secondary catalog. Matches
// are then snapped to frame accuracy around their first and last scene
// changes using a locally estimated playback speed.
//
// Key types:
//   - Video: immutable frame catalog (after marking)
//   - Span: non-owning view into a Video
//   - Detector: drives a full run and returns ordered media.VideoMatch values
//
// A run is CPU bound and synchronous. It does no I/O and cannot be
// cancelled; callers that need responsiveness run it on their own goroutine.
package matchalgo
