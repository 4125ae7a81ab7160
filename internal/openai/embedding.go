package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	var embedding []float32
	err := c.call(ctx, "embedding", func(ctx context.Context) error {
		var err error
		embedding, err = c.api.CreateEmbeddings(ctx, text)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.Dimensions() {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

func upstream(operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return domain.Upstream("openai "+operation, err)
}
