package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	envAPIURL     = "ADMIT_API_URL"
	envAdminToken = "ADMIT_ADMIN_TOKEN"

	defaultAPIURL = "http://localhost:8080"
)

type APIClient struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
}

// NewAPIClientWithCmd resolves settings with the cascade
// flag, environment, global config, default.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	var adminToken, baseURL string

	if cmd != nil {
		if v, err := cmd.Flags().GetString("api-url"); err == nil {
			baseURL = v
		}
		if v, err := cmd.Flags().GetString("admin-token"); err == nil {
			adminToken = v
		}
	}

	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}
	if adminToken == "" {
		adminToken = os.Getenv(envAdminToken)
	}

	if baseURL == "" || adminToken == "" {
		cfg, err := LoadGlobalConfig()
		if err != nil {
			return nil, err
		}
		if baseURL == "" {
			baseURL = cfg.APIURL
		}
		if adminToken == "" {
			adminToken = cfg.AdminToken
		}
	}

	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	return NewAPIClientWithConfig(baseURL, adminToken), nil
}

// NewAPIClientWithConfig creates an APIClient with explicit settings.
func NewAPIClientWithConfig(baseURL, adminToken string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// APIResponse represents the standard API response format.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// APIError represents an error from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// ChatReply is the unwrapped body of POST /chat.
type ChatReply struct {
	Response    string `json:"response"`
	IsOutDomain bool   `json:"is_outdomain"`
}

// Chat sends one query to a room.
func (c *APIClient) Chat(ctx context.Context, roomID, query string) (*ChatReply, error) {
	body, _, err := c.raw(ctx, http.MethodPost, "/chat", map[string]string{"room_id": roomID, "query": query})
	if err != nil {
		return nil, err
	}
	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &reply, nil
}

// Get performs a GET request and decodes the data envelope into out.
func (c *APIClient) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *APIClient) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Delete performs a DELETE request.
func (c *APIClient) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	respBody, status, err := c.raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || status == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// raw sends the request and returns the body of a successful response.
// Multi-status replies count as success.
func (c *APIClient) raw(ctx context.Context, method, path string, body interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var apiResp APIResponse
		if json.Unmarshal(respBody, &apiResp) == nil && apiResp.Error != "" {
			apiErr.Message = apiResp.Error
			apiErr.Code = apiResp.Code
		}
		return nil, resp.StatusCode, apiErr
	}

	return respBody, resp.StatusCode, nil
}
