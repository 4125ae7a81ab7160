// Package agent answers score-based admission questions with a
// tool-calling loop over official cutoff tables.
package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/admitbot/internal/metrics"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// DefaultMaxIterations bounds the tool loop.
const DefaultMaxIterations = 5

// ErrEmptyAnswer is returned when the model ends the loop without text.
var ErrEmptyAnswer = errors.New("agent produced no answer")

// ToolCaller runs one turn of a tool-calling chat.
type ToolCaller interface {
	ChatWithTools(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// Agent is the reasoning agent.
type Agent struct {
	llm           ToolCaller
	tables        *ScoreTables
	retriever     Retriever
	maxIterations int
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

// New creates an agent. retriever may be nil.
func New(llm ToolCaller, tables *ScoreTables, retriever Retriever, maxIterations int, logger zerolog.Logger, m *metrics.Metrics) *Agent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if tables == nil {
		tables = DefaultScoreTables()
	}
	return &Agent{
		llm:           llm,
		tables:        tables,
		retriever:     retriever,
		maxIterations: maxIterations,
		logger:        logger,
		metrics:       m,
	}
}

// Result is the agent's answer and the chunk texts it retrieved.
type Result struct {
	Answer    string
	Retrieved []string
}

// Run answers query. The loop stops when the model replies without tool
// calls; after maxIterations tool rounds one last call is made with no
// tools offered so the model must answer.
func (a *Agent) Run(ctx context.Context, query, history string) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "agent.run", telemetry.SpanAttributes{Operation: "reasoning"})
	defer span.End()

	tb := NewToolbox(a.tables, a.retriever)
	defs := tb.Definitions()
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: renderInstruction(a.tables.LatestYear(), history)},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	for i := 0; ; i++ {
		tools := defs
		if i >= a.maxIterations {
			tools = nil
		}
		msg, err := a.llm.ChatWithTools(ctx, messages, tools)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		if len(msg.ToolCalls) == 0 || tools == nil {
			answer := strings.TrimSpace(msg.Content)
			if answer == "" {
				return nil, ErrEmptyAnswer
			}
			a.logger.Debug().Int("iterations", i).Msg("agent finished")
			return &Result{Answer: answer, Retrieved: tb.Retrieved()}, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			out, err := tb.Execute(ctx, call.Function.Name, call.Function.Arguments)
			a.recordTool(call.Function.Name, out, err)
			if err != nil {
				span.SetError(err)
				return nil, err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: call.ID,
			})
		}
	}
}

func (a *Agent) recordTool(name, out string, err error) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case strings.HasPrefix(out, `{"error"`):
		status = "rejected"
	}
	a.logger.Debug().Str("tool", name).Str("status", status).Msg("tool call")
	if a.metrics != nil {
		a.metrics.AgentToolCalls.WithLabelValues(name, status).Inc()
	}
}
