package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguage(t *testing.T) {
	tests := []struct {
		lang      Language
		supported bool
		restore   bool
		translate bool
	}{
		{LanguageVietnamese, true, false, false},
		{LanguageEnglish, true, false, true},
		{LanguageMixed, true, false, true},
		{LanguageVietnameseNoToneMark, true, true, false},
		{LanguageMixedNoToneMark, true, true, true},
		{LanguageUnsupported, false, false, false},
		{Language("fr"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			assert.Equal(t, tt.supported, tt.lang.IsSupported())
			assert.Equal(t, tt.restore, tt.lang.NeedsToneRestoration())
			assert.Equal(t, tt.translate, tt.lang.NeedsTranslation())
		})
	}
}

func TestRawQuery_Validate(t *testing.T) {
	assert.NoError(t, RawQuery{RoomID: "r1", Text: "điểm chuẩn"}.Validate())
	assert.ErrorIs(t, RawQuery{RoomID: " ", Text: "x"}.Validate(), ErrMissingRoomID)
	assert.ErrorIs(t, RawQuery{RoomID: "r1", Text: "\n"}.Validate(), ErrEmptyQuery)
}

func TestProcessedQuery_Verdict(t *testing.T) {
	tests := []struct {
		name string
		pq   ProcessedQuery
		want Verdict
	}{
		{"proceed", ProcessedQuery{LanguageSupported: true}, VerdictProceed},
		{"icon", ProcessedQuery{IsIconOnly: true}, VerdictIcon},
		{"short chat", ProcessedQuery{LanguageSupported: true, IsShortChat: true}, VerdictShortChat},
		{"injection before language", ProcessedQuery{IsPromptInjection: true}, VerdictPromptInjection},
		{"unsupported", ProcessedQuery{Language: LanguageUnsupported}, VerdictUnsupported},
		{"out of domain", ProcessedQuery{LanguageSupported: true, IsOutOfDomain: true}, VerdictOutOfDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pq.Verdict())
		})
	}
}

func TestVerdict_IsShortCircuit(t *testing.T) {
	assert.True(t, VerdictIcon.IsShortCircuit())
	assert.True(t, VerdictPromptInjection.IsShortCircuit())
	assert.False(t, VerdictOutOfDomain.IsShortCircuit())
	assert.False(t, VerdictProceed.IsShortCircuit())
}

func TestConversationTurn_Validate(t *testing.T) {
	assert.NoError(t, (&ConversationTurn{RoomID: "r1", Query: "q"}).Validate())
	assert.ErrorIs(t, (&ConversationTurn{Query: "q"}).Validate(), ErrMissingRoomID)
	assert.ErrorIs(t, (&ConversationTurn{RoomID: "r1"}).Validate(), ErrEmptyQuery)
	assert.Contains(t, FallbackContactMessage, "090.883.1246")
}
