// Package api is a typed HTTP client for the FileVault REST API. Errors
// returned by the server are decoded into *Error, which matches the
// sentinels in internal/common with errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/go-querystring/query"
)

type SignedURL struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CreateFileRequest struct {
	Name        string  `json:"name"`
	DirectoryID string  `json:"directoryId"`
	MimeType    string  `json:"mimeType"`
	Size        int64   `json:"size"`
	Key         *string `json:"key,omitempty"`
}

type CreateVersionRequest struct {
	Name     string  `json:"name"`
	MimeType string  `json:"mimeType"`
	Size     int64   `json:"size"`
	Key      *string `json:"key,omitempty"`
}

type FileUpload struct {
	File      *models.File `json:"file"`
	UploadURL SignedURL    `json:"uploadUrl"`
}

type VersionUpload struct {
	Version   *models.FileVersion `json:"version"`
	UploadURL SignedURL           `json:"uploadUrl"`
}

type DeleteResult struct {
	FileID  string               `json:"fileId"`
	Cleanup models.CleanupReport `json:"cleanup"`
}

// ListOptions selects a page of versions. Zero values are omitted and the
// server applies its defaults.
type ListOptions struct {
	Cursor string `url:"cursor,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://127.0.0.1:8080".
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: u, http: httpClient}, nil
}

func (c *Client) CreateFile(ctx context.Context, in CreateFileRequest) (*FileUpload, error) {
	var out FileUpload
	if err := c.do(ctx, http.MethodPost, "/v1/files", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindFiles(ctx context.Context, q string) ([]models.File, error) {
	var out []models.File
	if err := c.do(ctx, http.MethodGet, "/v1/files", url.Values{"query": {q}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFile(ctx context.Context, id string) (*models.File, error) {
	var out models.File
	if err := c.do(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MoveFile(ctx context.Context, id, directoryID string) (*models.File, error) {
	var out models.File
	body := map[string]string{"directoryId": directoryID}
	if err := c.do(ctx, http.MethodPut, "/v1/files/"+url.PathEscape(id)+"/directory", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameFile(ctx context.Context, id, name string) (*models.File, error) {
	var out models.File
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPut, "/v1/files/"+url.PathEscape(id)+"/name", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) (*DeleteResult, error) {
	var out DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/v1/files/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateFileVersion(ctx context.Context, fileID string, in CreateVersionRequest) (*VersionUpload, error) {
	var out VersionUpload
	if err := c.do(ctx, http.MethodPost, "/v1/files/"+url.PathEscape(fileID)+"/versions", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFileVersions(ctx context.Context, fileID string, opts ListOptions) (*models.Page, error) {
	return c.page(ctx, "/v1/files/"+url.PathEscape(fileID)+"/versions", opts)
}

func (c *Client) ListAllFileVersions(ctx context.Context, opts ListOptions) (*models.Page, error) {
	return c.page(ctx, "/v1/versions", opts)
}

func (c *Client) GetFileVersion(ctx context.Context, id string) (*models.FileVersion, error) {
	var out models.FileVersion
	if err := c.do(ctx, http.MethodGet, "/v1/versions/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestFileUpload(ctx context.Context, versionID string) (*VersionUpload, error) {
	var out VersionUpload
	if err := c.do(ctx, http.MethodPost, "/v1/versions/"+url.PathEscape(versionID)+"/upload-url", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestFileDownload(ctx context.Context, key string) (*SignedURL, error) {
	var out SignedURL
	if err := c.do(ctx, http.MethodGet, "/v1/downloads", url.Values{"key": {key}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) page(ctx context.Context, path string, opts ListOptions) (*models.Page, error) {
	q, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate URL query from options: %w", err)
	}

	var out models.Page
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	u.RawQuery = q.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
