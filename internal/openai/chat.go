package openai

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Message roles
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
)

// Message is one chat message without tool metadata.
type Message struct {
	Role    string
	Content string
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

type completionOptions struct {
	operation   string
	jsonMode    bool
	maxTokens   int
	temperature float32
}

// CompletionOption tunes a single completion.
type CompletionOption func(*completionOptions)

// WithJSON asks the model for a JSON object response.
func WithJSON() CompletionOption {
	return func(o *completionOptions) { o.jsonMode = true }
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) CompletionOption {
	return func(o *completionOptions) { o.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) CompletionOption {
	return func(o *completionOptions) { o.temperature = t }
}

// WithOperation labels the call in metrics and errors.
func WithOperation(name string) CompletionOption {
	return func(o *completionOptions) { o.operation = name }
}

// Complete runs a single-shot chat completion and returns the text.
func (c *Client) Complete(ctx context.Context, messages []Message, opts ...CompletionOption) (string, error) {
	o := completionOptions{operation: "completion"}
	for _, opt := range opts {
		opt(&o)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if o.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	var content string
	err := c.call(ctx, o.operation, func(ctx context.Context) error {
		resp, err := c.chat.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrNoChoices
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ChatWithTools runs one turn of a tool-calling conversation and returns
// the assistant message, which may carry tool calls.
func (c *Client) ChatWithTools(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.chatModel,
		Messages: messages,
		Tools:    tools,
	}

	var msg openai.ChatCompletionMessage
	err := c.call(ctx, "tool_call", func(ctx context.Context) error {
		resp, err := c.chat.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrNoChoices
		}
		msg = resp.Choices[0].Message
		return nil
	})
	return msg, err
}
