package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransient_WrapsPlainErrors(t *testing.T) {
	cause := errors.New("connection refused")

	err := Transient(cause)

	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, cause)
}

func TestTransient_KeepsDomainErrors(t *testing.T) {
	for _, sentinel := range []error{ErrNotFound, ErrReferentialViolation, ErrAlreadyExists, ErrInvalidArgument} {
		wrapped := fmt.Errorf("lookup: %w", sentinel)

		err := Transient(wrapped)

		assert.Same(t, wrapped, err)
		assert.False(t, errors.Is(err, ErrTransient), "domain error %v must not become transient", sentinel)
	}
}

func TestTransient_Nil(t *testing.T) {
	assert.NoError(t, Transient(nil))
}

func TestTransient_DoesNotDoubleWrap(t *testing.T) {
	once := Transient(errors.New("timeout"))

	assert.Equal(t, once, Transient(once))
}
