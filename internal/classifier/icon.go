package classifier

import (
	"regexp"
	"strings"
	"unicode"
)

var emoticonPattern = regexp.MustCompile(`(?i)(?:[:;=][\-o^']?[)(\]\[dpo/\\|*3v@]+|\bx[dD]+\b|<3+|\^[_\-.]?\^|\bt_t\b|-_-|>_<|o_o)`)

// IsIconOnly reports whether text carries no letters or digits once
// emoticons are removed, e.g. "😂😂", ":))" or "👍 !".
func IsIconOnly(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	rest := emoticonPattern.ReplaceAllString(text, " ")
	for _, r := range rest {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
