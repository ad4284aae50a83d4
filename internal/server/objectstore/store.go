// Package objectstore is the boundary to the bucket that holds version
// payloads. Callers never move bytes through the server: they receive
// time-limited signed URLs instead.
package objectstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// Mode selects the operation a signed URL authorises.
type Mode int

const (
	// the zero Mode is invalid
	_ Mode = iota
	Upload
	Download
)

func (m Mode) String() string {
	switch m {
	case Upload:
		return "upload"
	case Download:
		return "download"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Method is the HTTP method the holder of a URL signed for m must use.
func (m Mode) Method() string {
	switch m {
	case Upload:
		return http.MethodPut
	case Download:
		return http.MethodGet
	default:
		return ""
	}
}

// Validate rejects anything but Upload and Download.
func (m Mode) Validate() error {
	if m != Upload && m != Download {
		return fmt.Errorf("%w: unknown signing mode %s", common.ErrInvalidArgument, m)
	}
	return nil
}

// SignedURL is a capability for one PUT or GET against a single key.
type SignedURL struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store signs URLs and deletes objects. Implementations must be safe for
// concurrent use. Errors are returned as is; callers decide how to classify
// them.
type Store interface {
	SignURL(ctx context.Context, mode Mode, key string) (SignedURL, error)
	DeleteObject(ctx context.Context, key string) error
}
