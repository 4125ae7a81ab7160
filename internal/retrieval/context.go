package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

const (
	// EncodingName is the BPE used to budget prompt context.
	EncodingName = "cl100k_base"

	chunkSeparator = "\n====================\n"
	metadataHeader = "\nmetadata:\n"
)

// TokenCounter counts prompt tokens.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts cl100k_base tokens.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count implements TokenCounter.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxCounter estimates tokens when the BPE ranks cannot be loaded.
// Vietnamese averages close to three runes per token under cl100k_base.
type ApproxCounter struct{}

// Count implements TokenCounter.
func (ApproxCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return n/3 + 1
}

// ChunkBlock renders one chunk the way it appears in the prompt.
func ChunkBlock(c *domain.Chunk) string {
	return c.Text + metadataHeader + c.PromptMetadata()
}

// AssembleContext appends chunk blocks in rank order until the next one
// would exceed maxTokens. The first chunk is always kept whole. It
// returns the context and the number of chunks included.
func AssembleContext(hits []domain.ScoredChunk, counter TokenCounter, maxTokens int) (string, int) {
	var b strings.Builder
	used := 0
	n := 0
	for i := range hits {
		block := ChunkBlock(&hits[i].Chunk)
		tokens := counter.Count(block)
		if n > 0 && used+tokens > maxTokens {
			break
		}
		b.WriteString(chunkSeparator)
		b.WriteString(block)
		used += tokens
		n++
	}
	return b.String(), n
}
