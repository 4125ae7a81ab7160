package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IsEmoji reports whether r is a pictographic or emoji-modifier rune.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, transport, supplemental
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x2190 && r <= 0x21FF: // arrows
		return true
	case r == 0x200D || r == 0xFE0F || r == 0x20E3:
		return true
	case r >= 0xE0020 && r <= 0xE007F: // tag sequences
		return true
	}
	return unicode.Is(unicode.So, r)
}

// StripEmoji replaces every emoji rune with a space.
func StripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		if IsEmoji(r) {
			return ' '
		}
		return r
	}, s)
}

// RemoveDiacritics returns the unaccented skeleton of s, mapping đ to d.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// HasDiacritics reports whether s contains any Vietnamese tone or vowel mark.
func HasDiacritics(s string) bool {
	return RemoveDiacritics(s) != norm.NFC.String(s)
}
