// Package cache persists frame hashes and detector results in SQLite so
// repeated runs over the same files skip the expensive ffmpeg passes.
//
// Entries are keyed by file name and video packet count, which identifies a
// file across moves without hashing its contents. Detector entries also
// record the filter parameters they were produced with; a lookup with
// different parameters is a miss and drops the stale row. Per-media file
// locks keep concurrent digidub processes from running the same detector
// twice.
package cache
