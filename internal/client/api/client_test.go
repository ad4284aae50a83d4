package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestClient(t *testing.T, status int, reply any) (*Client, *recorded) {
	t.Helper()

	rec := &recorded{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			require.NoError(t, json.Unmarshal(b, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", ts.Client())
	require.NoError(t, err)
	return c, rec
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("127.0.0.1:8080", nil)
	assert.Error(t, err)

	_, err = New("::", nil)
	assert.Error(t, err)
}

func TestCreateFile(t *testing.T) {
	reply := FileUpload{
		File:      &models.File{ID: "f1", Name: "a.txt", Versions: []models.FileVersion{{ID: "v1", Key: "k1"}}},
		UploadURL: SignedURL{URL: "http://s3/k1", Method: http.MethodPut},
	}
	c, rec := newTestClient(t, http.StatusCreated, reply)

	got, err := c.CreateFile(context.Background(), CreateFileRequest{Name: "a.txt", DirectoryID: "d", MimeType: "text/plain", Size: 3})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/v1/files", rec.path)
	assert.Equal(t, "a.txt", rec.body["name"])
	assert.Equal(t, "d", rec.body["directoryId"])
	assert.NotContains(t, rec.body, "key")
	assert.Equal(t, "f1", got.File.ID)
	assert.Equal(t, "k1", got.File.Versions[0].Key)
	assert.Equal(t, "http://s3/k1", got.UploadURL.URL)
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
		query  string
	}{
		{"find", func(c *Client) error { _, err := c.FindFiles(ctx, "re port"); return err }, http.MethodGet, "/v1/files", "query=re+port"},
		{"get", func(c *Client) error { _, err := c.GetFile(ctx, "f/1"); return err }, http.MethodGet, "/v1/files/f%2F1", ""},
		{"move", func(c *Client) error { _, err := c.MoveFile(ctx, "f1", "d2"); return err }, http.MethodPut, "/v1/files/f1/directory", ""},
		{"rename", func(c *Client) error { _, err := c.RenameFile(ctx, "f1", "b"); return err }, http.MethodPut, "/v1/files/f1/name", ""},
		{"delete", func(c *Client) error { _, err := c.DeleteFile(ctx, "f1"); return err }, http.MethodDelete, "/v1/files/f1", ""},
		{"push", func(c *Client) error {
			_, err := c.CreateFileVersion(ctx, "f1", CreateVersionRequest{Name: "a", MimeType: "m"})
			return err
		}, http.MethodPost, "/v1/files/f1/versions", ""},
		{"versions page", func(c *Client) error {
			_, err := c.GetFileVersions(ctx, "f1", ListOptions{Cursor: "abc", Limit: 5})
			return err
		}, http.MethodGet, "/v1/files/f1/versions", "cursor=abc&limit=5"},
		{"all versions default page", func(c *Client) error { _, err := c.ListAllFileVersions(ctx, ListOptions{}); return err }, http.MethodGet, "/v1/versions", ""},
		{"version", func(c *Client) error { _, err := c.GetFileVersion(ctx, "v1"); return err }, http.MethodGet, "/v1/versions/v1", ""},
		{"upload url", func(c *Client) error { _, err := c.RequestFileUpload(ctx, "v1"); return err }, http.MethodPost, "/v1/versions/v1/upload-url", ""},
		{"download", func(c *Client) error { _, err := c.RequestFileDownload(ctx, "files/2024/01/02/x"); return err }, http.MethodGet, "/v1/downloads", "key=files%2F2024%2F01%2F02%2Fx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reply any = map[string]any{}
			if tt.name == "find" {
				reply = []any{}
			}
			c, rec := newTestClient(t, http.StatusOK, reply)
			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
			assert.Equal(t, tt.query, rec.query)
		})
	}
}

func TestErrors_MapToSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, common.ErrInvalidArgument},
		{http.StatusNotFound, common.ErrNotFound},
		{http.StatusConflict, common.ErrAlreadyExists},
		{http.StatusUnprocessableEntity, common.ErrReferentialViolation},
		{http.StatusServiceUnavailable, common.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestClient(t, tt.status, map[string]string{"error": "boom"})

			_, err := c.GetFile(context.Background(), "f1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "boom", apiErr.Message)
		})
	}
}

func TestErrors_UploadCapabilityCarriesRecords(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadGateway, map[string]any{
		"error":   "upload url could not be issued",
		"version": models.FileVersion{ID: "v1", Key: "k1"},
	})

	_, err := c.CreateFileVersion(context.Background(), "f1", CreateVersionRequest{Name: "a", MimeType: "m"})
	require.ErrorIs(t, err, common.ErrUploadCapability)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.NotNil(t, apiErr.Version)
	assert.Equal(t, "v1", apiErr.Version.ID)
}

func TestErrors_UnknownStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := New(ts.URL, ts.Client())
	require.NoError(t, err)

	_, err = c.GetFile(context.Background(), "f1")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Nil(t, apiErr.Unwrap())
}
