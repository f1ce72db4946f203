package script

import (
	"strings"
	"unicode/utf8"
)

// reservedNames are device names Windows refuses as file names, compared
// case-insensitively against the whole name.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Sanitize returns s made safe for use as a single file or directory name on
// both Unix and Windows.
//
// Characters illegal on either platform are replaced by their full-width
// look-alikes (":" becomes "：", "/" becomes "⧸"), control characters and
// invalid UTF-8 are removed, trailing dots and spaces are stripped, and a
// name equal to a reserved device name gets a trailing "_". Sanitize is
// idempotent.
func Sanitize(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	for i, w := 0, 0; i < len(s); i += w {
		r, size := utf8.DecodeRuneInString(s[i:])
		w = size

		switch {
		case r == utf8.RuneError && size == 1:
			// invalid byte
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			// control character
		case r == '/':
			sb.WriteRune('⧸')
		case r == '\\':
			sb.WriteRune('⧹')
		case strings.ContainsRune(`":*?<>|`, r):
			sb.WriteRune(r + 0xfee0)
		default:
			sb.WriteRune(r)
		}
	}

	out := strings.TrimRight(sb.String(), ". ")

	if _, ok := reservedNames[strings.ToUpper(out)]; ok {
		out += "_"
	}

	return out
}
