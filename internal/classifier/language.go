package classifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/textnorm"
)

// LanguageIdentifier assigns one of the closed language states.
type LanguageIdentifier interface {
	Identify(ctx context.Context, text string) (domain.Language, error)
}

const vietnameseLetters = "àáảãạăằắẳẵặâầấẩẫậèéẻẽẹêềếểễệìíỉĩịòóỏõọôồốổỗộơờớởỡợùúủũụưừứửữựỳýỷỹỵđ"

type lexicon struct {
	Vietnamese []string `yaml:"vietnamese"`
	English    []string `yaml:"english"`
}

// LexiconIdentifier scores words against Vietnamese letters and two
// small word lists. It separates toned from untoned Vietnamese, which
// general-purpose detectors do not.
type LexiconIdentifier struct {
	vietnamese map[string]struct{}
	english    map[string]struct{}
}

// NewLexiconIdentifier loads the word lists from YAML.
func NewLexiconIdentifier(r io.Reader) (*LexiconIdentifier, error) {
	var lx lexicon
	if err := yaml.NewDecoder(r).Decode(&lx); err != nil {
		return nil, fmt.Errorf("failed to decode language lexicon: %w", err)
	}

	id := &LexiconIdentifier{
		vietnamese: make(map[string]struct{}, len(lx.Vietnamese)),
		english:    make(map[string]struct{}, len(lx.English)),
	}
	for _, w := range lx.English {
		id.english[textnorm.CollapseElongation(strings.ToLower(w))] = struct{}{}
	}
	for _, w := range lx.Vietnamese {
		w = textnorm.CollapseElongation(strings.ToLower(w))
		if _, shared := id.english[w]; !shared {
			id.vietnamese[w] = struct{}{}
		}
	}
	return id, nil
}

type languageCounts struct {
	toned, plainVi, english, foreign, unknown int
}

func (id *LexiconIdentifier) count(text string) languageCounts {
	var c languageCounts
	for _, w := range tokenize(text) {
		if !strings.ContainsFunc(w, unicode.IsLetter) {
			continue
		}
		w = textnorm.CollapseElongation(w)
		switch {
		case strings.ContainsFunc(w, isForeignLetter):
			c.foreign++
		case strings.ContainsAny(w, vietnameseLetters):
			c.toned++
		default:
			_, vi := id.vietnamese[w]
			_, en := id.english[w]
			switch {
			case vi:
				c.plainVi++
			case en:
				c.english++
			default:
				c.unknown++
			}
		}
	}
	return c
}

// Identify implements LanguageIdentifier.
func (id *LexiconIdentifier) Identify(_ context.Context, text string) (domain.Language, error) {
	c := id.count(text)
	words := c.toned + c.plainVi + c.english + c.foreign + c.unknown
	if words == 0 {
		return domain.LanguageVietnamese, nil
	}
	if c.foreign*2 > words {
		return domain.LanguageUnsupported, nil
	}

	if c.toned > 0 {
		if c.english > 0 {
			return domain.LanguageMixed, nil
		}
		return domain.LanguageVietnamese, nil
	}

	known := c.plainVi + c.english
	if known == 0 || c.unknown > 3*known {
		return domain.LanguageUnsupported, nil
	}
	switch {
	case c.plainVi == 0:
		return domain.LanguageEnglish, nil
	case c.english == 0:
		return domain.LanguageVietnameseNoToneMark, nil
	case c.plainVi*3 < c.english:
		return domain.LanguageEnglish, nil
	default:
		return domain.LanguageMixedNoToneMark, nil
	}
}

func isForeignLetter(r rune) bool {
	if !unicode.IsLetter(r) || r < 0x80 {
		return false
	}
	return !strings.ContainsRune(vietnameseLetters, unicode.ToLower(r))
}
