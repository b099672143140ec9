// Package preflight provides readiness checks for the binaries and
// filesystem paths digidub depends on.
//
// These checks run in two contexts:
//   - The "digidub preflight" command runs RunAll and prints every result.
//   - The match and detect commands call CheckInputs before probing, so a
//     typo in a path fails fast instead of after ffprobe has started.
package preflight
