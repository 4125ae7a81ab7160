package classifier

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func newLexicon(t *testing.T) *LexiconIdentifier {
	t.Helper()
	r, err := openResource("", "languages.yaml")
	require.NoError(t, err)
	id, err := NewLexiconIdentifier(r)
	require.NoError(t, err)
	return id
}

func TestLexiconIdentifier_Identify(t *testing.T) {
	id := newLexicon(t)

	tests := []struct {
		name string
		in   string
		want domain.Language
	}{
		{"toned vietnamese", "điểm chuẩn ngành khoa học máy tính", domain.LanguageVietnamese},
		{"untoned vietnamese", "diem chuan nganh khoa hoc may tinh", domain.LanguageVietnameseNoToneMark},
		{"english", "what is the tuition fee", domain.LanguageEnglish},
		{"untoned mixed", "tuition fee nganh khoa hoc may tinh la bao nhieu", domain.LanguageMixedNoToneMark},
		{"toned mixed", "học phí major computer science", domain.LanguageMixed},
		{"chinese", "你好吗", domain.LanguageUnsupported},
		{"french", "bonjour comment allez vous", domain.LanguageUnsupported},
		{"digits only", "2024", domain.LanguageVietnamese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := id.Identify(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLexiconIdentifier_DropsSharedWords(t *testing.T) {
	id, err := NewLexiconIdentifier(strings.NewReader(`
vietnamese: [hi, ban]
english: [hi]
`))
	require.NoError(t, err)

	_, vi := id.vietnamese["hi"]
	assert.False(t, vi)
	_, en := id.english["hi"]
	assert.True(t, en)
}

func TestIsForeignLetter(t *testing.T) {
	assert.False(t, isForeignLetter('a'))
	assert.False(t, isForeignLetter('ệ'))
	assert.False(t, isForeignLetter('Đ'))
	assert.True(t, isForeignLetter('ç'))
	assert.True(t, isForeignLetter('你'))
}
