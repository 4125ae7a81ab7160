// Package textnorm cleans raw user utterances before classification.
// Every function here is pure; a Normalizer only holds its compiled
// dictionary.
package textnorm

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalizer applies symbol substitution, emoji stripping, elongation
// collapse, filler removal and synonym canonicalization.
type Normalizer struct {
	symbols  *strings.Replacer
	fillers  map[string]struct{}
	synonyms []phrase
	maxWords int
}

type phrase struct {
	words     []string
	canonical string
}

// New compiles a dictionary. Dictionary keys go through the same
// lower-casing, symbol and elongation steps as input text so entries
// match what the pipeline produces.
func New(d *Dictionary) (*Normalizer, error) {
	n := &Normalizer{
		symbols: strings.NewReplacer(d.symbolPairs()...),
		fillers: make(map[string]struct{}, len(d.Fillers)),
	}

	for _, f := range d.Fillers {
		if key := n.prepare(f); key != "" {
			n.fillers[key] = struct{}{}
		}
	}

	seen := make(map[string]string)
	for canonical, variants := range d.Synonyms {
		for _, v := range variants {
			key := n.prepare(v)
			if key == "" {
				continue
			}
			if prev, ok := seen[key]; ok {
				if prev != canonical {
					return nil, fmt.Errorf("synonym %q maps to both %q and %q", v, prev, canonical)
				}
				continue
			}
			seen[key] = canonical
			words := strings.Fields(key)
			n.synonyms = append(n.synonyms, phrase{words: words, canonical: canonical})
			if len(words) > n.maxWords {
				n.maxWords = len(words)
			}
		}
	}
	return n, nil
}

// NewDefault returns a normalizer over the embedded dictionary.
func NewDefault() *Normalizer {
	n, err := New(DefaultDictionary())
	if err != nil {
		panic(fmt.Sprintf("textnorm: %v", err))
	}
	return n
}

func (n *Normalizer) prepare(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	s = n.symbols.Replace(s)
	s = CollapseElongation(s)
	return strings.Join(strings.Fields(s), " ")
}

// Normalize returns the cleaned form of text.
func (n *Normalizer) Normalize(text string) string {
	s := strings.ToLower(norm.NFC.String(text))
	s = n.symbols.Replace(s)
	s = StripEmoji(s)
	s = CollapseElongation(s)

	words := strings.Fields(s)
	words = n.dropFillers(words)
	words = n.canonicalize(words)
	return strings.Join(words, " ")
}

func (n *Normalizer) dropFillers(words []string) []string {
	out := words[:0]
	for _, w := range words {
		_, _, core := splitPunct(w)
		if _, ok := n.fillers[core]; ok {
			// keep trailing punctuation such as "ạ?" -> "?"
			if _, suffix, _ := splitPunct(w); suffix != "" && len(out) > 0 {
				out[len(out)-1] += suffix
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// canonicalize replaces the longest matching variant phrase at each
// position. Punctuation around the matched words is preserved.
func (n *Normalizer) canonicalize(words []string) []string {
	if len(n.synonyms) == 0 {
		return words
	}
	cores := make([]string, len(words))
	for i, w := range words {
		_, _, cores[i] = splitPunct(w)
	}

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		matched := 0
		canonical := ""
		for _, p := range n.synonyms {
			if len(p.words) <= matched || i+len(p.words) > len(words) {
				continue
			}
			if equalWords(cores[i:i+len(p.words)], p.words) {
				matched = len(p.words)
				canonical = p.canonical
			}
		}
		if matched == 0 {
			out = append(out, words[i])
			i++
			continue
		}
		prefix, _, _ := splitPunct(words[i])
		_, suffix, _ := splitPunct(words[i+matched-1])
		out = append(out, prefix+canonical+suffix)
		i += matched
	}
	return out
}

func equalWords(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitPunct separates leading and trailing punctuation from a word.
func splitPunct(w string) (prefix, suffix, core string) {
	start := strings.IndexFunc(w, func(r rune) bool { return !unicode.IsPunct(r) })
	if start < 0 {
		return w, "", ""
	}
	end := strings.LastIndexFunc(w, func(r rune) bool { return !unicode.IsPunct(r) })
	_, size := utf8.DecodeRuneInString(w[end:])
	return w[:start], w[end+size:], w[start : end+size]
}

// CollapseElongation folds runs of the same letter into one letter.
// Digits and other non-letters are left alone.
func CollapseElongation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r == prev && unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
