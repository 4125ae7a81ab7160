package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// ParseResult is a typed model output: either Value, or the raw text
// together with the reason it could not be decoded.
type ParseResult[T any] struct {
	Value T
	Raw   string
	Err   error
}

// OK reports whether the value was decoded.
func (r ParseResult[T]) OK() bool {
	return r.Err == nil
}

// ParseJSON decodes the first JSON object in raw. Markdown code fences
// and surrounding prose are tolerated.
func ParseJSON[T any](raw string) ParseResult[T] {
	res := ParseResult[T]{Raw: raw}
	obj, ok := extractObject(raw)
	if !ok {
		res.Err = domain.NewDomainErrorWithCause(domain.ErrMalformedLLMOutput.Code, domain.ErrMalformedLLMOutput.Message,
			fmt.Errorf("no JSON object in %q", truncate(raw, 120)))
		return res
	}
	if err := json.Unmarshal([]byte(obj), &res.Value); err != nil {
		res.Err = domain.NewDomainErrorWithCause(domain.ErrMalformedLLMOutput.Code, domain.ErrMalformedLLMOutput.Message, err)
	}
	return res
}

// extractObject returns the first balanced {...} span, honoring strings.
func extractObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
