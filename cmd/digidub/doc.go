// Command digidub aligns a primary video with a secondary one (typically a
// dub of the same program) and plans the audio track that replaces the
// primary audio with the matched secondary audio.
//
// The match command probes both files, runs the ffmpeg detectors on the
// primary, and prints the ordered match list. The dub command turns a saved
// match report into the output-segment plan consumed by the remux step.
package main
