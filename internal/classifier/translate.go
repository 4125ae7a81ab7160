package classifier

import (
	"context"
	"strings"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
)

// Translator rewrites English or mixed Vietnamese-English text into
// Vietnamese so it matches the corpus and the prompts downstream.
type Translator interface {
	Translate(ctx context.Context, text string, from domain.Language) (string, error)
}

const translateEnglishPrompt = `Dịch câu hỏi tiếng Anh dưới đây sang tiếng Việt.
Giữ nguyên mã ngành, mã tổ hợp, tên riêng và con số. Chỉ trả về câu đã dịch, không giải thích.`

const translateMixedPrompt = `Dịch các từ tiếng Anh trong câu hỏi dưới đây sang tiếng Việt để cả câu hoàn toàn là tiếng Việt.
Đồng thời thêm dấu, sửa lỗi chính tả và bổ sung dấu câu còn thiếu.
Giữ nguyên mã ngành, mã tổ hợp, tên riêng và con số. Chỉ trả về câu đã sửa, không giải thích.`

// LLMTranslator translates with a chat model.
type LLMTranslator struct {
	llm Completer
}

// NewLLMTranslator wraps a completer.
func NewLLMTranslator(llm Completer) *LLMTranslator {
	return &LLMTranslator{llm: llm}
}

// Translate implements Translator.
func (t *LLMTranslator) Translate(ctx context.Context, text string, from domain.Language) (string, error) {
	prompt := translateMixedPrompt
	if from == domain.LanguageEnglish {
		prompt = translateEnglishPrompt
	}
	out, err := t.llm.Complete(ctx,
		[]openai.Message{openai.System(prompt), openai.User(text)},
		openai.WithOperation("translate"), openai.WithMaxTokens(256))
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"“”`), nil
}
