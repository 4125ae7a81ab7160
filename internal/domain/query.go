package domain

import "strings"

// Language is the language/tone-mark state assigned by the classifier.
type Language string

const (
	LanguageVietnamese           Language = "vi"
	LanguageEnglish              Language = "en"
	LanguageMixed                Language = "vi_en"
	LanguageVietnameseNoToneMark Language = "no_tonemark_vi"
	LanguageMixedNoToneMark      Language = "no_tonemark_vi_en"
	LanguageUnsupported          Language = "unsupported"
)

// IsSupported reports whether the language can be answered.
func (l Language) IsSupported() bool {
	switch l {
	case LanguageVietnamese, LanguageEnglish, LanguageMixed,
		LanguageVietnameseNoToneMark, LanguageMixedNoToneMark:
		return true
	}
	return false
}

// NeedsToneRestoration reports whether diacritics must be restored.
func (l Language) NeedsToneRestoration() bool {
	return l == LanguageVietnameseNoToneMark || l == LanguageMixedNoToneMark
}

// NeedsTranslation reports whether the text has English that should be
// rendered in Vietnamese before classification continues.
func (l Language) NeedsTranslation() bool {
	return l == LanguageEnglish || l == LanguageMixed || l == LanguageMixedNoToneMark
}

// Verdict is the single terminal classification of a query.
type Verdict string

const (
	VerdictProceed         Verdict = "proceed"
	VerdictIcon            Verdict = "icon"
	VerdictShortChat       Verdict = "short_chat"
	VerdictUnsupported     Verdict = "unsupported_language"
	VerdictPromptInjection Verdict = "prompt_injection"
	VerdictOutOfDomain     Verdict = "out_of_domain"
)

// IsShortCircuit reports whether the verdict ends the turn with canned text.
func (v Verdict) IsShortCircuit() bool {
	switch v {
	case VerdictIcon, VerdictShortChat, VerdictUnsupported, VerdictPromptInjection:
		return true
	}
	return false
}

// RawQuery is the verbatim user utterance for a room.
type RawQuery struct {
	RoomID string
	Text   string
}

// Validate checks required fields.
func (q RawQuery) Validate() error {
	if strings.TrimSpace(q.RoomID) == "" {
		return ErrMissingRoomID
	}
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// ProcessedQuery is the classifier output consumed once by the router.
// At most one of the reason flags is set. LanguageSupported starts true
// and only turns false when language identification rejects the text.
type ProcessedQuery struct {
	Query             string
	Original          string
	Language          Language
	LanguageSupported bool
	IsPromptInjection bool
	IsOutOfDomain     bool
	IsShortChat       bool
	IsIconOnly        bool
}

// Verdict derives the terminal classification from the reason flags.
func (p *ProcessedQuery) Verdict() Verdict {
	switch {
	case p.IsIconOnly:
		return VerdictIcon
	case p.IsShortChat:
		return VerdictShortChat
	case p.IsPromptInjection:
		return VerdictPromptInjection
	case !p.LanguageSupported:
		return VerdictUnsupported
	case p.IsOutOfDomain:
		return VerdictOutOfDomain
	default:
		return VerdictProceed
	}
}
