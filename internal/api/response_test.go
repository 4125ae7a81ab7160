package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result["key"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]string{"public_id": "p1"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "p1", data["public_id"])
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"invalid combination", domain.ErrInvalidCombination, http.StatusBadRequest},
		{"not found error", domain.ErrFileNotFound, http.StatusNotFound},
		{"unauthorized error", domain.ErrInvalidAdminToken, http.StatusUnauthorized},
		{"upstream error", domain.Upstream("embed", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{"parse error", domain.ErrMalformedLLMOutput, http.StatusBadGateway},
		{"consistency error", domain.ErrPartialWrite, http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("failed to ingest: %w", domain.ErrUnsupportedFileType), http.StatusBadRequest},
		{"unknown domain error", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"non-domain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, domain.ErrFileNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "file not found", result.Error)
	assert.Equal(t, domain.ErrCodeNotFound, result.Code)
}

func TestHandleError_HidesCause(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"upstream", domain.Upstream("chat", errors.New("secret-host:5432 refused"))},
		{"plain", errors.New("secret-host:5432 refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err)
			assert.NotContains(t, w.Body.String(), "secret-host")
		})
	}
}
