package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/admitbot/internal/api"
	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/ingestion"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/service"
)

type FileService interface {
	IngestFiles(ctx context.Context, inputs []service.IngestFileInput) []service.IngestResult
	Delete(ctx context.Context, publicID string) (*ingestion.DeleteReport, error)
	List(ctx context.Context, input service.ListInput) (*pagination.PageResult[service.FileView], error)
}

type FileHandler struct {
	svc FileService
}

func NewFileHandler(svc FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

type IngestFileRequest struct {
	PublicID string `json:"public_id" validate:"required,max=256"`
	URL      string `json:"url" validate:"required"`
	FileName string `json:"file_name" validate:"max=512"`
	FileType string `json:"file_type" validate:"required,oneof=md markdown txt text html htm link pdf xlsx xlsm excel"`
}

type IngestFilesRequest struct {
	Files []IngestFileRequest `validate:"required,min=1,max=50,dive"`
}

type IngestFileResult struct {
	PublicID   string `json:"public_id"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

type FileResponse struct {
	PublicID    string `json:"public_id"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	ChunkCount  int    `json:"chunk_count"`
	DownloadURL string `json:"download_url,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type ListFilesResponse struct {
	Files   []*FileResponse `json:"files"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func fileToResponse(v service.FileView) *FileResponse {
	return &FileResponse{
		PublicID:    v.Record.PublicID,
		URL:         v.Record.URL,
		FileName:    v.Record.FileName,
		FileType:    string(v.Record.FileType),
		ChunkCount:  v.Record.ChunkCount,
		DownloadURL: v.DownloadURL,
		CreatedAt:   v.Record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Ingest accepts a batch of files. Each file succeeds or fails on its
// own; the response is 207 when some of them failed.
func (h *FileHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req.Files); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	inputs := make([]service.IngestFileInput, len(req.Files))
	for i, f := range req.Files {
		inputs[i] = service.IngestFileInput{
			PublicID: f.PublicID,
			URL:      f.URL,
			FileName: f.FileName,
			FileType: f.FileType,
		}
	}

	results := h.svc.IngestFiles(r.Context(), inputs)

	out := make([]IngestFileResult, len(results))
	failed := 0
	for i, res := range results {
		out[i] = IngestFileResult{PublicID: res.PublicID, Status: "ingested"}
		if res.Err != nil {
			failed++
			out[i].Status = "failed"
			out[i].Error = publicMessage(res.Err)
			continue
		}
		out[i].ChunkCount = res.Record.ChunkCount
	}

	status := http.StatusCreated
	switch {
	case failed == len(out):
		status = api.DomainErrorToHTTP(results[0].Err)
	case failed > 0:
		status = http.StatusMultiStatus
	}
	api.Success(w, status, out)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Delete(r.Context(), chi.URLParam(r, "public_id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, report)
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), listInput(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ListFilesResponse{
		Files:   make([]*FileResponse, 0, len(page.Items)),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	}
	for _, v := range page.Items {
		resp.Files = append(resp.Files, fileToResponse(v))
	}
	api.Success(w, http.StatusOK, resp)
}

// publicMessage is the domain message of err, or a generic text.
func publicMessage(err error) string {
	if de, ok := asDomainError(err); ok {
		return de.Message
	}
	return "ingestion failed"
}

func asDomainError(err error) (*domain.DomainError, bool) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
