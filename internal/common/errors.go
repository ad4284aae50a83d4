// Package common defines sentinel errors shared by the repositories, the
// services and the transports of FileVault. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound             = errors.New("not found")
	ErrReferentialViolation = errors.New("referenced record does not exist")
	ErrAlreadyExists        = errors.New("already exists")

	// Service-level errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransient marks a failure of the metadata store or the object store
	// that the caller may retry.
	ErrTransient = errors.New("store temporarily unavailable")

	// ErrUploadCapability is reported when metadata was committed but no
	// signed upload URL could be issued for it.
	ErrUploadCapability = errors.New("upload url could not be issued")
)

// Transient wraps err as a retryable store failure. Errors that already carry
// one of the domain sentinels are returned unchanged, as is nil.
func Transient(err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsDomain reports whether err is one of the non-retryable domain errors.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrReferentialViolation) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrTransient)
}
