package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestCachingEmbedder(t *testing.T) {
	inner := new(MockEmbedder)
	inner.On("GenerateEmbedding", mock.Anything, "học phí").Return([]float32{0.1, 0.2}, nil).Once()
	inner.On("GenerateEmbedding", mock.Anything, "lỗi").Return(nil, errors.New("boom")).Twice()

	e, err := NewCachingEmbedder(inner, 16)
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	v, err := e.GenerateEmbedding(ctx, "học phí")
	require.NoError(t, err)
	e.Wait()

	cached, err := e.GenerateEmbedding(ctx, "học phí")
	require.NoError(t, err)
	assert.Equal(t, v, cached)

	_, err = e.GenerateEmbedding(ctx, "lỗi")
	assert.Error(t, err)
	_, err = e.GenerateEmbedding(ctx, "lỗi")
	assert.Error(t, err)

	inner.AssertExpectations(t)
}
