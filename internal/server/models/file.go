// Package models defines server-side data models persisted in the database.
package models

import "time"

// File is a logical file. Its bytes live in object storage, one object per
// version; the row only carries descriptive metadata and placement.
type File struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DirectoryID string    `db:"directory_id" json:"directoryId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Versions are ordered by creation time.
	Versions []FileVersion `db:"-" json:"versions"`
}

// Keys returns the object-storage keys of all loaded versions.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.Versions))
	for _, v := range f.Versions {
		keys = append(keys, v.Key)
	}
	return keys
}
