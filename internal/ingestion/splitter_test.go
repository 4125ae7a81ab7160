package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/metrics"
)

const admissionPage = `## Học phí
Học phí năm 2024 dự kiến 35 triệu đồng mỗi năm.

## Chỉ tiêu
Ngành Khoa học máy tính tuyển 180 chỉ tiêu.`

func TestSessionSplitter_Split(t *testing.T) {
	llm := new(MockCompleter)
	s := NewSessionSplitter(llm, logger.Nop(), metrics.NewNop())
	ctx := context.Background()

	llm.On("Complete", ctx, mock.Anything).Return("```json\n"+`{"sessions": [
		{"title": "Học phí", "content": "Học phí năm 2024 dự kiến 35 triệu đồng mỗi năm."},
		{"title": " ", "content": "   "},
		{"title": "Chỉ tiêu", "content": "Ngành Khoa học máy tính tuyển 180 chỉ tiêu."}
	]}`+"\n```", nil).Once()

	sessions, err := s.Split(ctx, admissionPage)
	require.NoError(t, err)
	assert.Equal(t, []Session{
		{Title: "Học phí", Content: "Học phí năm 2024 dự kiến 35 triệu đồng mỗi năm."},
		{Title: "Chỉ tiêu", Content: "Ngành Khoa học máy tính tuyển 180 chỉ tiêu."},
	}, sessions)
	llm.AssertExpectations(t)
}

func TestSessionSplitter_ParseFailureFallsBack(t *testing.T) {
	llm := new(MockCompleter)
	m := metrics.New(prometheus.NewRegistry())
	s := NewSessionSplitter(llm, logger.Nop(), m)
	ctx := context.Background()

	llm.On("Complete", ctx, mock.Anything).Return("Xin lỗi, tôi không thể chia văn bản này.", nil).Once()

	sessions, err := s.Split(ctx, admissionPage)
	require.NoError(t, err)
	require.NotEmpty(t, sessions)
	assert.Empty(t, sessions[0].Title)
	assert.Contains(t, sessions[0].Content, "35 triệu")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFailures.WithLabelValues("split_sessions")))
}

func TestSessionSplitter_UpstreamError(t *testing.T) {
	llm := new(MockCompleter)
	s := NewSessionSplitter(llm, logger.Nop(), nil)
	ctx := context.Background()

	llm.On("Complete", ctx, mock.Anything).Return("", domain.Upstream("split", errors.New("timeout"))).Once()

	_, err := s.Split(ctx, admissionPage)
	assert.True(t, domain.IsUpstream(err))
}

func TestSessionSplitter_WindowsLongText(t *testing.T) {
	llm := new(MockCompleter)
	s := NewSessionSplitter(llm, logger.Nop(), nil)
	ctx := context.Background()

	paragraph := strings.Repeat("Thông tin tuyển sinh ngành Công nghệ thông tin. ", 60)
	text := strings.Repeat(paragraph+"\n\n", 5)
	require.Greater(t, len([]rune(text)), DefaultWindowSize)

	llm.On("Complete", ctx, mock.Anything).Return(`{"sessions":[{"title":"Tuyển sinh","content":"Ngành Công nghệ thông tin."}]}`, nil)

	sessions, err := s.Split(ctx, text)
	require.NoError(t, err)
	calls := len(llm.Calls)
	assert.Greater(t, calls, 1)
	assert.Len(t, sessions, calls)
}

func TestSessionSplitter_WithoutModel(t *testing.T) {
	s := NewSessionSplitter(nil, logger.Nop(), nil)

	sessions, err := s.Split(context.Background(), admissionPage)
	require.NoError(t, err)
	require.NotEmpty(t, sessions)

	empty, err := s.Split(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
