package printer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The device character set cannot render diacritics, so text is folded to a
// plain-ASCII form before it is sent: decompose, drop combining marks, then
// replace whatever non-ASCII remains.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func transliterate(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	sb.Grow(len(folded))
	for _, r := range folded {
		if r < 0x80 {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}
