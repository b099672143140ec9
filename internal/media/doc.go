// Package media holds the value types shared by the matcher, the dub
// assembler and the detector adapters.
//
// Key types:
//   - TimeSegment: half-open millisecond interval with text round-tripping
//   - VideoMatch: pair of time segments declared equivalent content
//   - Source: per-video frame hashes and detector results, where a nil
//     field means the data has not been computed yet
//
// The ffprobe subpackage reads container metadata (duration, frame rate,
// packet count) used to key cached detector results.
package media
