// Package logs reads back the rotated JSON log file written by digidub.
//
// Tail returns the last lines of the file or the lines appended after a
// known offset, optionally waiting for new output. Filter narrows JSON
// records by run id, component, minimum level or free text, which is how
// `digidub logs --run <id>` isolates one match run from a shared log.
package logs
