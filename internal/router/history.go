package router

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
)

// FormatHistory renders turns (oldest first) as numbered question/answer
// pairs. Turns are admitted newest first until the next one would exceed
// maxTokens, so the oldest turns are the ones dropped.
func FormatHistory(turns []*domain.ConversationTurn, counter retrieval.TokenCounter, maxTokens int) string {
	kept := make([]string, 0, len(turns))
	used := 0
	for i := len(turns) - 1; i >= 0; i-- {
		block := historyBlock(i+1, turns[i])
		cost := counter.Count(block)
		if maxTokens > 0 && used+cost > maxTokens {
			break
		}
		used += cost
		kept = append(kept, block)
	}

	var b strings.Builder
	for i := len(kept) - 1; i >= 0; i-- {
		b.WriteString(kept[i])
		if i > 0 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func historyBlock(n int, t *domain.ConversationTurn) string {
	return fmt.Sprintf("người dùng hỏi: %d: %s\nhệ thống trả lời: %d: %s", n, t.Query, n, t.Answer)
}
