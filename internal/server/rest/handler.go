// Package rest exposes the file services over HTTP/JSON.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// FileService is the subset of *services.FileService the handlers call.
type FileService interface {
	CreateFile(ctx context.Context, in services.CreateFileInput) (*services.CreateFileResult, error)
	GetFile(ctx context.Context, id string) (*models.File, error)
	MoveFile(ctx context.Context, id, directoryID string) (*models.File, error)
	RenameFile(ctx context.Context, id, name string) (*models.File, error)
	DeleteFile(ctx context.Context, id string) (*services.DeleteFileResult, error)
	FindFiles(ctx context.Context, query string) ([]*models.File, error)
}

// FileVersionService is the subset of *services.FileVersionService the
// handlers call.
type FileVersionService interface {
	CreateFileVersion(ctx context.Context, in services.CreateFileVersionInput) (*services.VersionUpload, error)
	GetFileVersion(ctx context.Context, id string) (*models.FileVersion, error)
	GetFileVersions(ctx context.Context, fileID string, p *models.Pagination) (*models.Page, error)
	ListAllFileVersions(ctx context.Context, p *models.Pagination) (*models.Page, error)
	RequestFileUpload(ctx context.Context, versionID string) (*services.VersionUpload, error)
	RequestFileDownload(ctx context.Context, key string) (objectstore.SignedURL, error)
}

type Handler struct {
	files    FileService
	versions FileVersionService
	logger   logging.Logger
}

func NewHandler(files FileService, versions FileVersionService, l logging.Logger) *Handler {
	return &Handler{files: files, versions: versions, logger: l}
}

type moveRequest struct {
	DirectoryID string `json:"directoryId"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type createVersionRequest struct {
	Name     string  `json:"name"`
	MimeType string  `json:"mimeType"`
	Size     int64   `json:"size"`
	Key      *string `json:"key,omitempty"`
}

func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req services.CreateFileInput
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.files.CreateFile(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, res)
}

func (h *Handler) FindFiles(w http.ResponseWriter, r *http.Request) {
	found, err := h.files.FindFiles(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, found)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.GetFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, file)
}

func (h *Handler) MoveFile(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}

	file, err := h.files.MoveFile(r.Context(), chi.URLParam(r, "id"), req.DirectoryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, file)
}

func (h *Handler) RenameFile(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !h.decode(w, r, &req) {
		return
	}

	file, err := h.files.RenameFile(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, file)
}

// DeleteFile answers 200 whenever the metadata delete committed, including
// when some objects could not be removed; the body carries the cleanup
// report.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	res, err := h.files.DeleteFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, res)
}

func (h *Handler) CreateFileVersion(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.versions.CreateFileVersion(r.Context(), services.CreateFileVersionInput{
		FileID:   chi.URLParam(r, "id"),
		Name:     req.Name,
		MimeType: req.MimeType,
		Size:     req.Size,
		Key:      req.Key,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, res)
}

func (h *Handler) GetFileVersions(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.versions.GetFileVersions(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

func (h *Handler) ListAllFileVersions(w http.ResponseWriter, r *http.Request) {
	p, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.versions.ListAllFileVersions(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, page)
}

func (h *Handler) GetFileVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.versions.GetFileVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, v)
}

func (h *Handler) RequestFileUpload(w http.ResponseWriter, r *http.Request) {
	res, err := h.versions.RequestFileUpload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, res)
}

func (h *Handler) RequestFileDownload(w http.ResponseWriter, r *http.Request) {
	u, err := h.versions.RequestFileDownload(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, u)
}

// pagination reads ?cursor= and ?limit=. Neither present means nil, so the
// service applies its default page.
func pagination(r *http.Request) (*models.Pagination, error) {
	q := r.URL.Query()
	cursor, rawLimit := q.Get("cursor"), q.Get("limit")
	if cursor == "" && rawLimit == "" {
		return nil, nil
	}

	p := &models.Pagination{Cursor: cursor}
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: limit must be a positive integer", common.ErrInvalidArgument)
		}
		p.Limit = n
	}
	return p, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: invalid request body: %v", common.ErrInvalidArgument, err))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error(r.Context(), "encode response", "path", r.URL.Path, "error", err)
	}
}
