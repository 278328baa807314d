package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var cp1252 = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// Encode converts text for the given face: core fonts take Windows-1252
// bytes, embedded faces take UTF-8.
func Encode(face Face, s string) string {
	if face.UTF8 {
		return s
	}
	out, err := cp1252.String(s)
	if err != nil {
		return s
	}
	return out
}

// Normalize applies NFC so that combining sequences measure as single glyphs
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// CollapseWhitespace replaces whitespace runs with a single space
func CollapseWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
