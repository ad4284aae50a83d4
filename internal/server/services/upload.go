package services

import (
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// UploadCapabilityError is returned when metadata has been committed but the
// object store refused to sign an upload URL. The records are durable; the
// caller should obtain a fresh URL with RequestFileUpload(Version.ID)
// rather than create them again.
type UploadCapabilityError struct {
	// File is set when the failure happened in CreateFile.
	File    *models.File
	Version *models.FileVersion
	Err     error
}

func (e *UploadCapabilityError) Error() string {
	return fmt.Sprintf("%v: version %s key %q: %v", common.ErrUploadCapability, e.Version.ID, e.Version.Key, e.Err)
}

func (e *UploadCapabilityError) Unwrap() []error {
	return []error{common.ErrUploadCapability, e.Err}
}
