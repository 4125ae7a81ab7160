//go:build integration

package storage

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/testutil"
)

func TestS3Client_ArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()

	container := testutil.NewRustFSContainer(ctx, t)
	defer container.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-documents",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))
	require.NoError(t, client.EnsureBucket(ctx))

	key := ObjectKey("p1", "hoc-phi.md")
	body := []byte("# Học phí\n\nHọc phí năm 2024 khoảng 35 triệu đồng/năm.")
	require.NoError(t, client.PutObject(ctx, key, body, "text/markdown"))

	meta, err := client.HeadObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), meta.ContentLength)

	url, err := client.GenerateDownloadURL(ctx, key)
	require.NoError(t, err)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	require.NoError(t, client.DeleteObject(ctx, key))
	_, err = client.HeadObject(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
