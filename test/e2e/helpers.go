//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/admitbot/internal/cli/admin"
	"github.com/cloo-solutions/admitbot/internal/config"
	"github.com/cloo-solutions/admitbot/internal/database"
	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/testutil"
)

const adminToken = "e2e-admin-token"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	App        *admin.App
	Server     *httptest.Server
	ServerURL  string
	LLM        *fakeOpenAI
	Docs       *httptest.Server
	BinaryDir  string
	HTTPClient *http.Client
}

// SetupE2EEnv starts Postgres and RustFS, applies migrations and serves
// the fully wired API against a fake model endpoint.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	llm := newFakeOpenAI(t)
	docs := httptest.NewServer(http.FileServer(http.Dir("testdata")))

	if err := database.Migrate(pgC.ConnectionString(), "../../migrations", logger.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Setenv("ADMIT_DATABASE_URL", pgC.ConnectionString())
	t.Setenv("ADMIT_OPENAI_API_KEY", "sk-e2e")
	t.Setenv("ADMIT_OPENAI_BASE_URL", llm.BaseURL())
	t.Setenv("ADMIT_EMBEDDING_DIMENSIONS", fmt.Sprint(fakeDimensions))
	t.Setenv("ADMIT_S3_ENDPOINT", s3C.Endpoint())
	t.Setenv("ADMIT_S3_ACCESS_KEY_ID", "rustfsadmin")
	t.Setenv("ADMIT_S3_SECRET_ACCESS_KEY", "rustfsadmin")
	t.Setenv("ADMIT_S3_BUCKET", "e2e-documents")
	t.Setenv("ADMIT_ADMIN_TOKEN", adminToken)
	t.Setenv("ADMIT_CLEANUP_POLL_INTERVAL", "200ms")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	app, err := admin.BuildApp(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}

	pool, err := pgxpool.New(ctx, pgC.ConnectionString())
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	srv := httptest.NewServer(app.Handler())

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		App:        app,
		Server:     srv,
		ServerURL:  srv.URL,
		LLM:        llm,
		Docs:       docs,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Docs != nil {
		e.Docs.Close()
	}
	if e.App != nil {
		e.App.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// DocURL is the address of a file under testdata/.
func (e *E2ETestEnv) DocURL(name string) string {
	return e.Docs.URL + "/" + name
}

// BuildBinaries builds the admit client
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "admit-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "admit"), "./cmd/admit")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build admit: %v\n%s", err, out)
	}
}

// RunAdmit runs the admit CLI with its config kept in a temp dir.
func (e *E2ETestEnv) RunAdmit(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "admit"), args...)
	cmd.Env = append(os.Environ(),
		"ADMIT_API_URL="+e.ServerURL,
		"ADMIT_ADMIN_TOKEN="+adminToken,
		"XDG_CONFIG_HOME="+filepath.Join(e.BinaryDir, "config"),
		"HOME="+e.BinaryDir,
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// HTTPResult is a decoded response together with its status.
type HTTPResult struct {
	Status int
	Body   []byte
}

// Data returns the payload of a {"data": ...} envelope.
func (r *HTTPResult) Data(v interface{}) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, v)
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, token string) (*HTTPResult, error) {
	return e.doRequest(http.MethodGet, path, nil, token)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, token string) (*HTTPResult, error) {
	return e.doRequest(http.MethodPost, path, body, token)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, token string) (*HTTPResult, error) {
	return e.doRequest(http.MethodDelete, path, nil, token)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, token string) (*HTTPResult, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &HTTPResult{Status: resp.StatusCode, Body: respBody}, nil
}

// Chat posts one query and decodes the unwrapped reply.
func (e *E2ETestEnv) Chat(roomID, query string) (string, bool) {
	res, err := e.Post("/chat", map[string]string{"room_id": roomID, "query": query}, "")
	if err != nil {
		e.T.Fatalf("chat request failed: %v", err)
	}
	if res.Status != http.StatusOK {
		e.T.Fatalf("chat returned %d: %s", res.Status, res.Body)
	}
	var reply struct {
		Response    string `json:"response"`
		IsOutDomain bool   `json:"is_outdomain"`
	}
	if err := json.Unmarshal(res.Body, &reply); err != nil {
		e.T.Fatalf("failed to decode chat reply: %v", err)
	}
	return reply.Response, reply.IsOutDomain
}
