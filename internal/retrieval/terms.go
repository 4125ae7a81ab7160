package retrieval

import (
	"strings"
	"unicode"

	"github.com/cloo-solutions/admitbot/internal/textnorm"
)

// stopwords are compared after diacritics are removed, so "là" and "la"
// collapse to one entry. Domain words such as "diem", "nganh" and "hoc"
// are deliberately absent.
var stopwords = map[string]struct{}{
	// Vietnamese function words
	"la": {}, "cua": {}, "va": {}, "cho": {}, "toi": {}, "minh": {}, "em": {}, "ban": {}, "thi": {},
	"co": {}, "khong": {}, "nao": {}, "gi": {}, "nhe": {}, "oi": {}, "vay": {}, "duoc": {}, "nhung": {},
	"cac": {}, "mot": {}, "nhu": {}, "voi": {}, "ve": {}, "o": {}, "trong": {}, "hay": {}, "hoac": {},
	"nay": {}, "do": {}, "de": {}, "se": {}, "da": {}, "dang": {}, "bao": {}, "nhieu": {}, "ai": {},
	"sao": {}, "the": {}, "thu": {}, "ma": {}, "neu": {}, "khi": {}, "tai": {}, "vi": {}, "a": {},
	"ha": {}, "nha": {}, "u": {}, "ak": {}, "ko": {}, "k": {}, "dc": {},
	// English
	"an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"in": {}, "on": {}, "at": {}, "from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "it": {}, "this": {}, "that": {}, "these": {}, "those": {}, "we": {}, "our": {}, "you": {},
	"your": {}, "i": {}, "me": {}, "my": {}, "us": {}, "them": {}, "they": {}, "their": {},
	"does": {}, "did": {}, "what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "which": {}, "can": {},
	"could": {}, "should": {}, "would": {}, "may": {}, "might": {}, "will": {}, "shall": {},
}

// Terms splits text into lowercase, diacritic-free keyword terms with
// stopwords removed.
func Terms(text string) []string {
	folded := strings.ToLower(textnorm.RemoveDiacritics(text))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, ok := stopwords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// KeywordQuery is the space-joined form of Terms.
func KeywordQuery(text string) string {
	return strings.Join(Terms(text), " ")
}
