//go:build e2e

package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestResult struct {
	PublicID   string `json:"public_id"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error"`
}

type fileList struct {
	Files []struct {
		PublicID    string `json:"public_id"`
		FileName    string `json:"file_name"`
		ChunkCount  int    `json:"chunk_count"`
		DownloadURL string `json:"download_url"`
	} `json:"files"`
	HasMore bool `json:"has_more"`
}

type history struct {
	RoomID string `json:"room_id"`
	Turns  []struct {
		Query       string `json:"query"`
		Answer      string `json:"answer"`
		IsOutDomain bool   `json:"is_outdomain"`
		Route       string `json:"route"`
	} `json:"turns"`
}

func (e *E2ETestEnv) ingest(publicID, name string) ingestResult {
	res, err := e.Post("/files", []map[string]string{{
		"public_id": publicID,
		"url":       e.DocURL(name),
		"file_name": name,
		"file_type": "md",
	}}, adminToken)
	require.NoError(e.T, err)
	require.Equal(e.T, http.StatusCreated, res.Status, string(res.Body))

	var results []ingestResult
	require.NoError(e.T, res.Data(&results))
	require.Len(e.T, results, 1)
	return results[0]
}

func TestE2E_KnowledgeLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("file routes require the admin token", func(t *testing.T) {
		res, err := env.Get("/files", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Status)

		res, err = env.Get("/files", "wrong")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Status)
	})

	// Only one document is ingested in this environment, so table-wide
	// counts of chunk_embeddings belong to it.
	t.Run("ingest archives and indexes a document", func(t *testing.T) {
		result := env.ingest("hoc-phi-2024", "hoc-phi.md")
		assert.Equal(t, "ingested", result.Status)
		assert.Positive(t, result.ChunkCount)

		var chunks int
		require.NoError(t, env.Pool.QueryRow(env.Ctx,
			"SELECT count(*) FROM chunk_embeddings").Scan(&chunks))
		assert.Equal(t, result.ChunkCount, chunks)

		var docs int
		require.NoError(t, env.Pool.QueryRow(env.Ctx,
			"SELECT count(*) FROM chunk_documents WHERE public_id = $1", "hoc-phi-2024").Scan(&docs))
		assert.Equal(t, chunks, docs, "both stores hold the same chunks")
	})

	t.Run("list exposes a download link", func(t *testing.T) {
		res, err := env.Get("/files", adminToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.Status)

		var list fileList
		require.NoError(t, res.Data(&list))
		require.Len(t, list.Files, 1)
		assert.Equal(t, "hoc-phi-2024", list.Files[0].PublicID)
		require.NotEmpty(t, list.Files[0].DownloadURL)

		resp, err := env.HTTPClient.Get(list.Files[0].DownloadURL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("re-ingest replaces instead of duplicating", func(t *testing.T) {
		first := env.ingest("hoc-phi-2024", "hoc-phi.md")

		var chunks int
		require.NoError(t, env.Pool.QueryRow(env.Ctx,
			"SELECT count(*) FROM chunk_embeddings").Scan(&chunks))
		assert.Equal(t, first.ChunkCount, chunks)
	})

	t.Run("chat answers from the knowledge base", func(t *testing.T) {
		answer, outOfDomain := env.Chat("room-e2e", "Học phí ngành Khoa học máy tính năm 2024 là bao nhiêu vậy ạ?")
		assert.Contains(t, answer, fakeAnswer)
		assert.False(t, outOfDomain)

		res, err := env.Get("/chat/room-e2e", "")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.Status)

		var h history
		require.NoError(t, res.Data(&h))
		require.Len(t, h.Turns, 1)
		assert.Contains(t, h.Turns[0].Answer, fakeAnswer)
	})

	t.Run("delete removes the document from every store", func(t *testing.T) {
		res, err := env.Delete("/files/hoc-phi-2024", adminToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.Status, string(res.Body))

		var chunks int
		require.NoError(t, env.Pool.QueryRow(env.Ctx,
			"SELECT count(*) FROM chunk_embeddings").Scan(&chunks))
		assert.Zero(t, chunks)

		res, err = env.Delete("/files/hoc-phi-2024", adminToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.Status)
	})

	t.Run("ingest failure reports per-file status", func(t *testing.T) {
		res, err := env.Post("/files", []map[string]string{{
			"public_id": "missing",
			"url":       env.DocURL("does-not-exist.md"),
			"file_name": "does-not-exist.md",
			"file_type": "md",
		}}, adminToken)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Status, 400)
	})
}

func TestE2E_Conversation(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("short chat is answered without the model", func(t *testing.T) {
		before := env.LLM.completions.Load()
		answer, _ := env.Chat("room-greet", "xin chào")
		assert.NotEmpty(t, answer)
		assert.Equal(t, before, env.LLM.completions.Load())
	})

	t.Run("icon only message", func(t *testing.T) {
		answer, _ := env.Chat("room-icon", "😀😀")
		assert.Contains(t, answer, "tuyển sinh")
	})

	t.Run("history pages newest first and clears", func(t *testing.T) {
		env.Chat("room-hist", "xin chào")
		env.Chat("room-hist", "cảm ơn bạn")

		res, err := env.Get("/chat/room-hist?limit=1", "")
		require.NoError(t, err)
		var h history
		require.NoError(t, res.Data(&h))
		require.Len(t, h.Turns, 1)
		assert.Equal(t, "cảm ơn bạn", h.Turns[0].Query)

		res, err = env.Delete("/chat/room-hist", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, res.Status)

		res, err = env.Get("/chat/room-hist", "")
		require.NoError(t, err)
		require.NoError(t, res.Data(&h))
		assert.Empty(t, h.Turns)
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		res, err := env.Post("/chat", map[string]string{"room_id": "r", "query": ""}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.Status)
	})

	t.Run("health and metrics", func(t *testing.T) {
		res, err := env.Get("/health", "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Status)

		res, err = env.Get("/metrics", "")
		require.NoError(t, err)
		assert.Contains(t, string(res.Body), "admitbot_http_requests_total")
	})
}

func TestE2E_ClientCLI(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()

	out, err := env.RunAdmit("files", "add", env.DocURL("hoc-phi.md"), "--public-id", "cli-doc")
	require.NoError(t, err, out)
	assert.Contains(t, out, "OK")

	out, err = env.RunAdmit("files", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "cli-doc")

	out, err = env.RunAdmit("chat", "--room", "cli-room", "Học phí ngành Khoa học máy tính năm 2024 là bao nhiêu vậy ạ?")
	require.NoError(t, err, out)
	assert.Contains(t, out, fakeAnswer)

	out, err = env.RunAdmit("history", "--room", "cli-room", "--output")
	require.NoError(t, err, out)
	assert.True(t, strings.Contains(out, `"room_id": "cli-room"`), out)

	out, err = env.RunAdmit("files", "rm", "cli-doc")
	require.NoError(t, err, out)
	assert.Contains(t, out, "deleted cli-doc")
}
