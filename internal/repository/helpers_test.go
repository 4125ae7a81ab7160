//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/admitbot/internal/testutil"
)

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

// unitVector returns a 1536-dimensional vector with a single hot axis.
func unitVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}
