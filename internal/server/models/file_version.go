package models

import "time"

// FileVersion is one binary revision of a File.
type FileVersion struct {
	ID     string `db:"id" json:"id"`
	FileID string `db:"file_id" json:"fileId"`

	Name     string `db:"name" json:"name"`
	MimeType string `db:"mime_type" json:"mimeType"`
	// Size is the byte length the caller announced; it is not verified
	// against the uploaded object.
	Size int64 `db:"size" json:"size"`

	// Key is the object-storage key of the payload. Immutable.
	Key string `db:"key" json:"key"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
