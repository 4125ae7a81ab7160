package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/openai"
)

type engineFixture struct {
	embedder *MockEmbedder
	index    *MockVectorIndex
	llm      *MockCompleter
	engine   *Engine
}

func newEngineFixture(cfg Config) *engineFixture {
	f := &engineFixture{
		embedder: new(MockEmbedder),
		index:    new(MockVectorIndex),
		llm:      new(MockCompleter),
	}
	f.engine = NewEngine(f.embedder, f.index, f.llm, wordCounter{}, cfg, logger.Nop())
	return f
}

func (f *engineFixture) assertExpectations(t *testing.T) {
	f.embedder.AssertExpectations(t)
	f.index.AssertExpectations(t)
	f.llm.AssertExpectations(t)
}

func TestEngine_Retrieve(t *testing.T) {
	f := newEngineFixture(Config{TopK: 3})
	vec := []float32{0.1, 0.2}
	f.embedder.On("GenerateEmbedding", mock.Anything, "học phí").Return(vec, nil)
	f.index.On("Search", mock.Anything, SearchRequest{Query: "học phí", Embedding: vec, Alpha: DefaultAlpha, Limit: 3}).
		Return([]domain.ScoredChunk{hit("b", 2, 0.4), hit("a", 1, 0.9), hit("c", 3, 0.4), hit("d", 4, 0.1)}, nil)

	res, err := f.engine.Retrieve(context.Background(), "học phí")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(res.RankedChunks))
	assert.Contains(t, res.CombinedContext, "chunk a")
	assert.NotContains(t, res.CombinedContext, "chunk d")
	f.assertExpectations(t)
}

func TestEngine_Retrieve_SearchFailure(t *testing.T) {
	f := newEngineFixture(Config{})
	f.embedder.On("GenerateEmbedding", mock.Anything, "học phí").Return([]float32{1}, nil)
	f.index.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := f.engine.Retrieve(context.Background(), "học phí")
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
	f.assertExpectations(t)
}

func TestEngine_Retrieve_EmbeddingFailure(t *testing.T) {
	f := newEngineFixture(Config{})
	f.embedder.On("GenerateEmbedding", mock.Anything, "học phí").
		Return(nil, domain.Upstream("embedding", errors.New("503")))

	_, err := f.engine.Retrieve(context.Background(), "học phí")
	assert.True(t, domain.IsUpstream(err))
	f.index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestEngine_Answer(t *testing.T) {
	f := newEngineFixture(Config{AppendSources: true})
	f.embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	chunk := hit("a", 1, 0.9)
	chunk.Chunk.Metadata = map[string]string{domain.MetaLink: "https://tuyensinh.uit.edu.vn"}
	f.index.On("Search", mock.Anything, mock.Anything).Return([]domain.ScoredChunk{chunk}, nil)
	f.llm.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []openai.Message) bool {
		return len(msgs) == 1 && msgs[0].Role == openai.RoleUser &&
			strings.Contains(msgs[0].Content, "chunk a") &&
			strings.Contains(msgs[0].Content, "điểm chuẩn 2024") &&
			strings.Contains(msgs[0].Content, "Q: xin chào")
	})).Return("Điểm chuẩn năm 2024 là 27.3.", nil)

	ans, err := f.engine.Answer(context.Background(), "điểm chuẩn 2024", "Q: xin chào")
	require.NoError(t, err)
	assert.False(t, ans.OutOfDomain)
	assert.Contains(t, ans.Text, "Điểm chuẩn năm 2024 là 27.3.")
	assert.Contains(t, ans.Text, "## Nguồn thông tin")
	assert.Equal(t, []string{"chunk a"}, ans.Result.Texts())
	f.assertExpectations(t)
}

func TestEngine_Answer_Sentinel(t *testing.T) {
	f := newEngineFixture(Config{AppendSources: true})
	f.embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	f.index.On("Search", mock.Anything, mock.Anything).Return([]domain.ScoredChunk{}, nil)
	f.llm.On("Complete", mock.Anything, mock.Anything).Return(domain.OutOfScopeSentinel+".", nil)

	ans, err := f.engine.Answer(context.Background(), "giá vàng hôm nay", "")
	require.NoError(t, err)
	assert.True(t, ans.OutOfDomain)
	assert.Equal(t, domain.FallbackContactMessage, ans.Text)
	f.assertExpectations(t)
}

func TestEngine_Answer_CompletionFailure(t *testing.T) {
	f := newEngineFixture(Config{})
	f.embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)
	f.index.On("Search", mock.Anything, mock.Anything).Return([]domain.ScoredChunk{hit("a", 1, 1)}, nil)
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("", domain.Upstream("answer", context.DeadlineExceeded))

	_, err := f.engine.Answer(context.Background(), "học phí", "")
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestIsFallbackAnswer(t *testing.T) {
	assert.True(t, IsFallbackAnswer(""))
	assert.True(t, IsFallbackAnswer(" None "))
	assert.True(t, IsFallbackAnswer("Xin lỗi. "+domain.OutOfScopeSentinel+"."))
	assert.False(t, IsFallbackAnswer("Học phí là 35 triệu đồng."))
}
