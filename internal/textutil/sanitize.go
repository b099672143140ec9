package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes leaves room for a suffix such as ".lock" under the usual
// 255 byte name limit.
const maxFileNameBytes = 200

// SafeFileName turns a media name into a single path component. Path
// separators, control characters and characters Windows shares reject become
// underscores, leading dots are dropped so the result is never hidden or a
// parent reference, and long names are cut on a rune boundary. An empty result
// becomes "media".
func SafeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		case unicode.IsControl(r), r == utf8.RuneError:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	mapped = strings.TrimLeft(mapped, ".")
	if len(mapped) > maxFileNameBytes {
		cut := maxFileNameBytes
		for cut > 0 && !utf8.RuneStart(mapped[cut]) {
			cut--
		}
		mapped = mapped[:cut]
	}
	mapped = strings.TrimSpace(mapped)
	if mapped == "" {
		return "media"
	}
	return mapped
}
