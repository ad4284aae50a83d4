package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/keygen"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DownloadPolicy decides whether RequestFileDownload checks that a key
// belongs to a committed version before signing it.
type DownloadPolicy string

const (
	// DownloadVerify signs only keys referenced by a version.
	DownloadVerify DownloadPolicy = "verify"
	// DownloadPublic signs any key.
	DownloadPublic DownloadPolicy = "public"
)

func ParseDownloadPolicy(s string) (DownloadPolicy, error) {
	switch p := DownloadPolicy(s); p {
	case DownloadVerify, DownloadPublic:
		return p, nil
	case "":
		return DownloadVerify, nil
	default:
		return "", fmt.Errorf("%w: unknown download policy %q", common.ErrInvalidArgument, s)
	}
}

// PageLimits bound the size of version listings.
type PageLimits struct {
	Default int
	Max     int
}

var DefaultPageLimits = PageLimits{Default: 20, Max: 100}

type CreateFileVersionInput struct {
	FileID   string  `json:"fileId"`
	Name     string  `json:"name"`
	MimeType string  `json:"mimeType"`
	Size     int64   `json:"size"`
	Key      *string `json:"key,omitempty"`
}

func (in CreateFileVersionInput) validate() error {
	switch {
	case in.FileID == "":
		return fmt.Errorf("%w: fileId is required", common.ErrInvalidArgument)
	case in.Name == "":
		return fmt.Errorf("%w: name is required", common.ErrInvalidArgument)
	case in.MimeType == "":
		return fmt.Errorf("%w: mimeType is required", common.ErrInvalidArgument)
	case in.Size < 0:
		return fmt.Errorf("%w: size must not be negative", common.ErrInvalidArgument)
	}
	return nil
}

// VersionUpload pairs a committed version with a URL to upload its bytes.
type VersionUpload struct {
	Version   *models.FileVersion   `json:"version"`
	UploadURL objectstore.SignedURL `json:"uploadUrl"`
}

// FileVersionService manages the versions of existing files.
type FileVersionService struct {
	deps   Deps
	policy DownloadPolicy
	limits PageLimits
}

func NewFileVersionService(deps Deps, policy DownloadPolicy, limits PageLimits) *FileVersionService {
	if policy == "" {
		policy = DownloadVerify
	}
	if limits.Default <= 0 {
		limits.Default = DefaultPageLimits.Default
	}
	if limits.Max < limits.Default {
		limits.Max = max(DefaultPageLimits.Max, limits.Default)
	}
	return &FileVersionService{deps: deps.withDefaults("versions"), policy: policy, limits: limits}
}

// CreateFileVersion adds a version to an existing file and returns an upload
// URL for it. A missing file yields common.ErrReferentialViolation. Signing
// failures after the insert are reported as *UploadCapabilityError.
func (s *FileVersionService) CreateFileVersion(ctx context.Context, in CreateFileVersionInput) (*VersionUpload, error) {
	ctx, span := tracer.Start(ctx, "FileVersionService.CreateFileVersion",
		trace.WithAttributes(attribute.String("file.id", in.FileID)))
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, fail(span, err)
	}
	key, err := keygen.Resolve(s.deps.Keys, in.Key)
	if err != nil {
		return nil, fail(span, err)
	}

	version := &models.FileVersion{FileID: in.FileID, Name: in.Name, MimeType: in.MimeType, Size: in.Size, Key: key}
	if err := s.deps.Repos.FileVersions(s.deps.DB).Create(ctx, version); err != nil {
		// a file id that cannot exist surfaces as not found from the store
		if errors.Is(err, common.ErrNotFound) {
			err = fmt.Errorf("%w: file %s", common.ErrReferentialViolation, in.FileID)
		}
		return nil, fail(span, err)
	}

	u, err := s.deps.sign(ctx, objectstore.Upload, key)
	if err != nil {
		s.deps.Log.Error(ctx, "upload url not issued for committed version",
			"file_id", version.FileID, "version_id", version.ID, "key", key, "error", err)
		err = &UploadCapabilityError{Version: version, Err: common.Transient(err)}
		span.RecordError(err)
		return nil, err
	}

	return &VersionUpload{Version: version, UploadURL: u}, nil
}

func (s *FileVersionService) GetFileVersion(ctx context.Context, id string) (*models.FileVersion, error) {
	ctx, span := tracer.Start(ctx, "FileVersionService.GetFileVersion",
		trace.WithAttributes(attribute.String("version.id", id)))
	defer span.End()

	v, err := s.deps.Repos.FileVersions(s.deps.DB).GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return v, nil
}

// GetFileVersions pages through the versions of one file in creation order.
// A file without versions, including one that does not exist, yields an
// empty page.
func (s *FileVersionService) GetFileVersions(ctx context.Context, fileID string, p *models.Pagination) (*models.Page, error) {
	ctx, span := tracer.Start(ctx, "FileVersionService.GetFileVersions",
		trace.WithAttributes(attribute.String("file.id", fileID)))
	defer span.End()

	if fileID == "" {
		return nil, fail(span, fmt.Errorf("%w: fileId is required", common.ErrInvalidArgument))
	}
	page, err := s.page(ctx, fileID, p)
	if err != nil {
		return nil, fail(span, err)
	}
	return page, nil
}

// ListAllFileVersions pages through every version of every file.
func (s *FileVersionService) ListAllFileVersions(ctx context.Context, p *models.Pagination) (*models.Page, error) {
	ctx, span := tracer.Start(ctx, "FileVersionService.ListAllFileVersions")
	defer span.End()

	page, err := s.page(ctx, "", p)
	if err != nil {
		return nil, fail(span, err)
	}
	return page, nil
}

func (s *FileVersionService) page(ctx context.Context, fileID string, p *models.Pagination) (*models.Page, error) {
	limit := s.limits.Default
	var after *models.Cursor

	if p != nil {
		switch {
		case p.Limit < 0:
			return nil, fmt.Errorf("%w: limit must be positive", common.ErrInvalidArgument)
		case p.Limit > 0:
			limit = min(p.Limit, s.limits.Max)
		}
		if p.Cursor != "" {
			c, err := models.DecodeCursor(p.Cursor)
			if err != nil {
				return nil, err
			}
			after = &c
		}
	}

	// one extra row tells whether another page follows
	items, err := s.deps.Repos.FileVersions(s.deps.DB).Page(ctx, fileID, after, limit+1)
	if err != nil {
		return nil, err
	}

	page := &models.Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = models.CursorAfter(page.Items[limit-1]).Encode()
	}
	if page.Items == nil {
		page.Items = []models.FileVersion{}
	}
	return page, nil
}

// RequestFileUpload signs a fresh upload URL for an existing version. It is
// the way out of an *UploadCapabilityError.
func (s *FileVersionService) RequestFileUpload(ctx context.Context, versionID string) (*VersionUpload, error) {
	ctx, span := tracer.Start(ctx, "FileVersionService.RequestFileUpload",
		trace.WithAttributes(attribute.String("version.id", versionID)))
	defer span.End()

	v, err := s.deps.Repos.FileVersions(s.deps.DB).GetByID(ctx, versionID)
	if err != nil {
		return nil, fail(span, err)
	}

	u, err := s.deps.sign(ctx, objectstore.Upload, v.Key)
	if err != nil {
		return nil, fail(span, fmt.Errorf("sign upload for %q: %w", v.Key, err))
	}
	return &VersionUpload{Version: v, UploadURL: u}, nil
}

// RequestFileDownload signs a download URL for key. Under DownloadVerify the
// key must belong to a version, otherwise common.ErrNotFound is returned.
// Issued URLs are cached until shortly before they expire.
func (s *FileVersionService) RequestFileDownload(ctx context.Context, key string) (objectstore.SignedURL, error) {
	ctx, span := tracer.Start(ctx, "FileVersionService.RequestFileDownload",
		trace.WithAttributes(attribute.String("object.key", key)))
	defer span.End()

	if err := keygen.Validate(key); err != nil {
		return objectstore.SignedURL{}, fail(span, err)
	}

	if s.policy == DownloadVerify {
		ok, err := s.deps.Repos.FileVersions(s.deps.DB).ExistsByKey(ctx, key)
		if err != nil {
			return objectstore.SignedURL{}, fail(span, err)
		}
		if !ok {
			return objectstore.SignedURL{}, fail(span, fmt.Errorf("%w: key %q", common.ErrNotFound, key))
		}
	}

	cached, hit, err := s.deps.URLCache.Get(ctx, key)
	if err != nil {
		s.deps.Log.Warn(ctx, "download url cache read failed", "key", key, "error", err)
	}
	if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	u, err := s.deps.sign(ctx, objectstore.Download, key)
	if err != nil {
		return objectstore.SignedURL{}, fail(span, fmt.Errorf("sign download for %q: %w", key, err))
	}

	if err := s.deps.URLCache.Set(ctx, key, u); err != nil {
		s.deps.Log.Warn(ctx, "download url cache write failed", "key", key, "error", err)
	}
	return u, nil
}
