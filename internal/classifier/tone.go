package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/openai"
	"github.com/cloo-solutions/admitbot/internal/textnorm"
)

// ToneRestorer returns text with Vietnamese diacritics restored.
type ToneRestorer interface {
	Restore(ctx context.Context, text string) (string, error)
}

// TokenTag is one token-classification prediction. Sub-word
// continuations start with "##". Label is the toned form of the word the
// token starts, or "O" when the word is already correct.
type TokenTag struct {
	Token string `json:"word"`
	Label string `json:"entity"`
}

// ToneTagger runs the token-classification model.
type ToneTagger interface {
	Tag(ctx context.Context, text string) ([]TokenTag, error)
}

const continuationPrefix = "##"

// MergeSubwords folds "##" continuations into the preceding token. The
// merged word keeps the label of its first sub-token.
func MergeSubwords(tags []TokenTag) []TokenTag {
	words := make([]TokenTag, 0, len(tags))
	for _, t := range tags {
		if strings.HasPrefix(t.Token, continuationPrefix) && len(words) > 0 {
			words[len(words)-1].Token += strings.TrimPrefix(t.Token, continuationPrefix)
			continue
		}
		words = append(words, TokenTag{Token: strings.TrimPrefix(t.Token, continuationPrefix), Label: t.Label})
	}
	return words
}

// lookahead bounds how far alignment searches for a word that the
// tokenizer split differently, e.g. around punctuation.
const lookahead = 3

// ApplyTones rewrites each whitespace-separated word of text with the
// label of its aligned tagged word. A label is only used when it has the
// same unaccented skeleton as the word, so the output always has the
// same number of words as text.
func ApplyTones(text string, words []TokenTag) string {
	fields := strings.Fields(text)
	next := 0
	for i, f := range fields {
		prefix, core, suffix := splitWord(f)
		if core == "" {
			continue
		}
		key := skeleton(core)
		for j := next; j < len(words) && j < next+lookahead; j++ {
			if skeleton(words[j].Token) != key {
				continue
			}
			next = j + 1
			if label := words[j].Label; label != "" && label != "O" && skeleton(label) == key {
				fields[i] = prefix + strings.ToLower(label) + suffix
			}
			break
		}
	}
	return strings.Join(fields, " ")
}

func skeleton(s string) string {
	return strings.ToLower(textnorm.RemoveDiacritics(s))
}

func splitWord(w string) (prefix, core, suffix string) {
	start := strings.IndexFunc(w, isWordRune)
	if start < 0 {
		return w, "", ""
	}
	end := strings.LastIndexFunc(w, isWordRune)
	_, size := utf8.DecodeRuneInString(w[end:])
	end += size
	return w[:start], w[start:end], w[end:]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TaggerRestorer restores tones with a token-classification model.
type TaggerRestorer struct {
	tagger ToneTagger
}

// NewTaggerRestorer wraps a tagger.
func NewTaggerRestorer(tagger ToneTagger) *TaggerRestorer {
	return &TaggerRestorer{tagger: tagger}
}

// Restore implements ToneRestorer.
func (r *TaggerRestorer) Restore(ctx context.Context, text string) (string, error) {
	tags, err := r.tagger.Tag(ctx, text)
	if err != nil {
		return "", err
	}
	return ApplyTones(text, MergeSubwords(tags)), nil
}

// HTTPToneTagger calls a token-classification inference endpoint that
// accepts {"inputs": text} and returns a list of TokenTag.
type HTTPToneTagger struct {
	url    string
	client *http.Client
}

// NewHTTPToneTagger creates a tagger for url.
func NewHTTPToneTagger(url string, timeout time.Duration) *HTTPToneTagger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPToneTagger{url: url, client: &http.Client{Timeout: timeout}}
}

// Tag implements ToneTagger.
func (t *HTTPToneTagger) Tag(ctx context.Context, text string) ([]TokenTag, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, domain.Upstream("tone tagger", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Upstream("tone tagger", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var tags []TokenTag
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, domain.Upstream("tone tagger", fmt.Errorf("failed to decode response: %w", err))
	}
	return tags, nil
}

// Completer is the single-shot completion used by LLMRestorer.
type Completer interface {
	Complete(ctx context.Context, messages []openai.Message, opts ...openai.CompletionOption) (string, error)
}

const restorePrompt = `Thêm dấu tiếng Việt và sửa lỗi chính tả cho câu hỏi dưới đây.
Giữ nguyên các từ tiếng Anh, mã ngành và con số. Chỉ trả về câu đã sửa, không giải thích.`

// LLMRestorer restores tones with a chat model when no tagger is deployed.
type LLMRestorer struct {
	llm Completer
}

// NewLLMRestorer wraps a completer.
func NewLLMRestorer(llm Completer) *LLMRestorer {
	return &LLMRestorer{llm: llm}
}

// Restore implements ToneRestorer. Only words whose unaccented skeleton
// is unchanged are taken from the model output.
func (r *LLMRestorer) Restore(ctx context.Context, text string) (string, error) {
	out, err := r.llm.Complete(ctx,
		[]openai.Message{openai.System(restorePrompt), openai.User(text)},
		openai.WithOperation("tone_restore"), openai.WithMaxTokens(256))
	if err != nil {
		return "", err
	}

	fields := strings.Fields(out)
	words := make([]TokenTag, 0, len(fields))
	for _, f := range fields {
		_, core, _ := splitWord(f)
		words = append(words, TokenTag{Token: core, Label: core})
	}
	return ApplyTones(text, words), nil
}
