// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata
//
// Inspect runs ffprobe with packet counting enabled so callers get the
// frame rate and packet count that identify a file in the detection cache.
package ffprobe
