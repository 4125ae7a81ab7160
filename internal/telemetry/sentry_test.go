package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/logger"
)

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{Logger: logger.Nop()})
	require.NoError(t, err)
	assert.NotPanics(t, shutdown)
}

func TestStartSpan_WithoutSentry(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "router.turn", SpanAttributes{RoomID: "r1", Route: "retrieval"})
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	childCtx, child := StartSpan(ctx, "retrieval.search", SpanAttributes{Operation: "search"})
	assert.NotNil(t, childCtx)

	assert.NotPanics(t, func() {
		child.SetTag("top_k", "5")
		child.EndWithError(errors.New("boom"))
		span.End()
	})
}

func TestSpan_NilInnerIsSafe(t *testing.T) {
	s := &Span{}
	assert.NotPanics(t, func() {
		s.SetTag("k", "v")
		s.SetError(errors.New("x"))
		s.EndWithError(nil)
	})
}

func TestCaptureAndBreadcrumb_WithoutHub(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError(context.Background(), errors.New("x"))
		AddBreadcrumb(context.Background(), "ingestion", "started")
	})
}
