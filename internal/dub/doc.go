// Package dub turns an ordered match list into the output-segment plan used
// to assemble a dubbed audio track.
//
// Each output segment says which source's audio fills a range of the
// primary timeline: the primary audio verbatim, or a matched range of the
// secondary audio stretched to the output length. The plan always tiles
// the primary duration exactly.
package dub
