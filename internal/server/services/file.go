package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/keygen"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateFileInput describes a new file and its first version. Key is
// optional; a fresh one is generated when it is nil.
type CreateFileInput struct {
	Name        string  `json:"name"`
	DirectoryID string  `json:"directoryId"`
	MimeType    string  `json:"mimeType"`
	Size        int64   `json:"size"`
	Key         *string `json:"key,omitempty"`
}

func (in CreateFileInput) validate() error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", common.ErrInvalidArgument)
	case in.DirectoryID == "":
		return fmt.Errorf("%w: directoryId is required", common.ErrInvalidArgument)
	case in.MimeType == "":
		return fmt.Errorf("%w: mimeType is required", common.ErrInvalidArgument)
	case in.Size < 0:
		return fmt.Errorf("%w: size must not be negative", common.ErrInvalidArgument)
	}
	return nil
}

type CreateFileResult struct {
	File      *models.File          `json:"file"`
	UploadURL objectstore.SignedURL `json:"uploadUrl"`
}

// DeleteFileResult reports a committed delete. A Cleanup that is not
// complete lists objects that may still exist in the bucket.
type DeleteFileResult struct {
	FileID  string               `json:"fileId"`
	Cleanup models.CleanupReport `json:"cleanup"`
}

// FileService manages files together with their versions.
type FileService struct {
	deps Deps
}

func NewFileService(deps Deps) *FileService {
	return &FileService{deps: deps.withDefaults("files")}
}

// CreateFile inserts the file and its first version in one transaction and
// then asks the object store for an upload URL. If signing fails the records
// stay committed and an *UploadCapabilityError is returned.
func (s *FileService) CreateFile(ctx context.Context, in CreateFileInput) (*CreateFileResult, error) {
	ctx, span := tracer.Start(ctx, "FileService.CreateFile")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, fail(span, err)
	}
	key, err := keygen.Resolve(s.deps.Keys, in.Key)
	if err != nil {
		return nil, fail(span, err)
	}

	file := &models.File{Name: in.Name, DirectoryID: in.DirectoryID}
	version := models.FileVersion{Name: in.Name, MimeType: in.MimeType, Size: in.Size, Key: key}

	err = s.deps.DB.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.deps.Repos.Files(tx).Create(ctx, file); err != nil {
			return err
		}
		version.FileID = file.ID
		return s.deps.Repos.FileVersions(tx).Create(ctx, &version)
	})
	if err != nil {
		return nil, fail(span, err)
	}
	file.Versions = []models.FileVersion{version}
	span.SetAttributes(attribute.String("file.id", file.ID))

	u, err := s.deps.sign(ctx, objectstore.Upload, key)
	if err != nil {
		s.deps.Log.Error(ctx, "upload url not issued for committed file",
			"file_id", file.ID, "version_id", version.ID, "key", key, "error", err)
		err = &UploadCapabilityError{File: file, Version: &file.Versions[0], Err: common.Transient(err)}
		span.RecordError(err)
		return nil, err
	}

	return &CreateFileResult{File: file, UploadURL: u}, nil
}

// GetFile returns the file with all its versions.
func (s *FileService) GetFile(ctx context.Context, id string) (*models.File, error) {
	ctx, span := tracer.Start(ctx, "FileService.GetFile", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	file, err := s.deps.Repos.Files(s.deps.DB).GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.loadVersions(ctx, file); err != nil {
		return nil, fail(span, err)
	}
	return file, nil
}

// MoveFile changes the directory of a file. The directory is not checked.
func (s *FileService) MoveFile(ctx context.Context, id, directoryID string) (*models.File, error) {
	ctx, span := tracer.Start(ctx, "FileService.MoveFile", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	if directoryID == "" {
		return nil, fail(span, fmt.Errorf("%w: directoryId is required", common.ErrInvalidArgument))
	}

	file, err := s.deps.Repos.Files(s.deps.DB).UpdateDirectory(ctx, id, directoryID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.loadVersions(ctx, file); err != nil {
		return nil, fail(span, err)
	}
	return file, nil
}

func (s *FileService) RenameFile(ctx context.Context, id, name string) (*models.File, error) {
	ctx, span := tracer.Start(ctx, "FileService.RenameFile", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	if name == "" {
		return nil, fail(span, fmt.Errorf("%w: name is required", common.ErrInvalidArgument))
	}

	file, err := s.deps.Repos.Files(s.deps.DB).UpdateName(ctx, id, name)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.loadVersions(ctx, file); err != nil {
		return nil, fail(span, err)
	}
	return file, nil
}

// DeleteFile removes the file and its versions in one transaction, then
// deletes every object the versions pointed at.
//
// The file row is locked first, so a concurrent delete of the same id waits
// and then gets common.ErrNotFound without touching the bucket. Object
// deletes run only after commit, one key at a time, and a failing key does
// not stop the rest. The outcome is reported in the Cleanup field; an
// incomplete cleanup is not an error.
func (s *FileService) DeleteFile(ctx context.Context, id string) (*DeleteFileResult, error) {
	ctx, span := tracer.Start(ctx, "FileService.DeleteFile", trace.WithAttributes(attribute.String("file.id", id)))
	defer span.End()

	var keys []string
	err := s.deps.DB.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		files := s.deps.Repos.Files(tx)
		versions := s.deps.Repos.FileVersions(tx)

		if err := files.Lock(ctx, id); err != nil {
			return err
		}
		k, err := versions.ListKeysByFile(ctx, id)
		if err != nil {
			return err
		}
		if _, err := versions.DeleteByFile(ctx, id); err != nil {
			return err
		}
		if err := files.Delete(ctx, id); err != nil {
			return err
		}
		keys = k
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	// the file is gone; cleanup must not be cut short by the caller leaving
	report := s.cleanup(context.WithoutCancel(ctx), id, keys)
	span.SetAttributes(
		attribute.String("cleanup.status", string(report.Status)),
		attribute.Int("cleanup.pending", len(report.PendingKeys)),
	)

	return &DeleteFileResult{FileID: id, Cleanup: report}, nil
}

func (s *FileService) cleanup(ctx context.Context, fileID string, keys []string) models.CleanupReport {
	var pending []string
	for _, key := range keys {
		err := s.deps.Objects.DeleteObject(ctx, key)
		s.deps.Metrics.ObjectDeleted(err)
		if err != nil {
			s.deps.Log.Warn(ctx, "object delete failed", "file_id", fileID, "key", key, "error", err)
			pending = append(pending, key)
		}
	}

	if err := s.deps.URLCache.Invalidate(ctx, keys...); err != nil {
		s.deps.Log.Warn(ctx, "download url cache not invalidated", "file_id", fileID, "error", err)
	}

	report := models.NewCleanupReport(len(keys), pending)
	s.deps.Metrics.CleanupFinished(report)

	if report.Complete() {
		s.deps.Log.Info(ctx, "file deleted", "file_id", fileID, "objects", report.Deleted)
	} else {
		s.deps.Log.Warn(ctx, "file deleted with orphaned objects",
			"file_id", fileID, "status", report.Status, "pending_keys", report.PendingKeys)
	}
	return report
}

// FindFiles returns files whose name contains query, ignoring case, ordered
// by name. Versions are loaded with a single extra query.
func (s *FileService) FindFiles(ctx context.Context, query string) ([]*models.File, error) {
	ctx, span := tracer.Start(ctx, "FileService.FindFiles", trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	found, err := s.deps.Repos.Files(s.deps.DB).Find(ctx, query)
	if err != nil {
		return nil, fail(span, err)
	}
	if len(found) == 0 {
		return []*models.File{}, nil
	}

	ids := make([]string, len(found))
	for i, f := range found {
		ids[i] = f.ID
	}
	byFile, err := s.deps.Repos.FileVersions(s.deps.DB).ListByFileIDs(ctx, ids)
	if err != nil {
		return nil, fail(span, err)
	}
	for _, f := range found {
		f.Versions = byFile[f.ID]
		if f.Versions == nil {
			f.Versions = []models.FileVersion{}
		}
	}

	span.SetAttributes(attribute.Int("files.found", len(found)))
	return found, nil
}

func (s *FileService) loadVersions(ctx context.Context, file *models.File) error {
	versions, err := s.deps.Repos.FileVersions(s.deps.DB).ListByFile(ctx, file.ID)
	if err != nil {
		return err
	}
	file.Versions = versions
	return nil
}
