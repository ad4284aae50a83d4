package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Error is a non-2xx answer from the server. For 502 responses File and
// Version carry the records that were committed before the upload URL
// could not be issued.
type Error struct {
	StatusCode int
	Message    string
	File       *models.File
	Version    *models.FileVersion
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code back onto the shared sentinel errors.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return common.ErrInvalidArgument
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrAlreadyExists
	case http.StatusUnprocessableEntity:
		return common.ErrReferentialViolation
	case http.StatusServiceUnavailable:
		return common.ErrTransient
	case http.StatusBadGateway:
		return common.ErrUploadCapability
	default:
		return nil
	}
}

type errorBody struct {
	Error   string              `json:"error"`
	File    *models.File        `json:"file"`
	Version *models.FileVersion `json:"version"`
}

func decodeError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return e
	}

	var b errorBody
	if json.Unmarshal(raw, &b) == nil && b.Error != "" {
		e.Message, e.File, e.Version = b.Error, b.File, b.Version
	}
	return e
}
