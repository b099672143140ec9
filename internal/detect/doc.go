// Package detect runs the external ffmpeg detector jobs and parses their
// output into media records.
//
// Silence, black-frame and scene-change detection are single ffmpeg passes
// whose results are read from stderr. Frame hashes are produced by an
// external extractor and exchanged as a small text file, see ReadFrames.
// Prepare combines probing, the on-disk cache and the runners into a
// complete media.Source.
package detect
