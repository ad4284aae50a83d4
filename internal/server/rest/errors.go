package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

// uploadCapabilityResponse tells the client which records were committed so
// it can ask for a new upload URL instead of creating them again.
type uploadCapabilityResponse struct {
	Error   string              `json:"error"`
	File    *models.File        `json:"file,omitempty"`
	Version *models.FileVersion `json:"version"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUploadCapability):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrReferentialViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	var capErr *services.UploadCapabilityError
	if errors.As(err, &capErr) {
		h.writeJSON(w, r, status, uploadCapabilityResponse{Error: err.Error(), File: capErr.File, Version: capErr.Version})
		return
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	h.writeJSON(w, r, status, errorResponse{Error: msg})
}
