package netx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	file := []byte("hello, s3")

	t.Run("success 200 OK", func(t *testing.T) {
		var gotBody []byte
		var gotCT, gotMethod string
		var gotLen int64

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotLen = r.ContentLength
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := Upload(context.Background(), ts.Client(), http.MethodPut, ts.URL+"/some/presigned?X-Amz-Signature=abc",
			bytes.NewReader(file), int64(len(file)), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "text/plain", gotCT)
		assert.Equal(t, int64(len(file)), gotLen)
		assert.Equal(t, file, gotBody)
	})

	t.Run("default content type", func(t *testing.T) {
		var gotCT string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCT = r.Header.Get("Content-Type")
		}))
		defer ts.Close()

		require.NoError(t, Upload(context.Background(), ts.Client(), http.MethodPut, ts.URL, bytes.NewReader(file), -1, ""))
		assert.Equal(t, "application/octet-stream", gotCT)
	})

	t.Run("non-2xx -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		err := Upload(context.Background(), ts.Client(), http.MethodPut, ts.URL, bytes.NewReader(file), int64(len(file)), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload failed: 403")
		assert.Contains(t, err.Error(), "SignatureDoesNotMatch")
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		err := Upload(context.Background(), http.DefaultClient, http.MethodPut, ts.URL, bytes.NewReader(file), int64(len(file)), "")
		require.Error(t, err)
		assert.False(t, strings.Contains(err.Error(), "upload failed"), "got wrong kind of error: %v", err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Upload(ctx, ts.Client(), http.MethodPut, ts.URL, bytes.NewReader(file), int64(len(file)), "")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDownload(t *testing.T) {
	t.Run("streams body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte("payload"))
		}))
		defer ts.Close()

		var buf bytes.Buffer
		n, err := Download(context.Background(), ts.Client(), ts.URL, &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		assert.Equal(t, "payload", buf.String())
	})

	t.Run("non-200 -> error, nothing written", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "NoSuchKey", http.StatusNotFound)
		}))
		defer ts.Close()

		var buf bytes.Buffer
		_, err := Download(context.Background(), ts.Client(), ts.URL, &buf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download failed: 404")
		assert.Zero(t, buf.Len())
	})
}
