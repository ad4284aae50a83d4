// Package keygen produces object-storage keys for new versions.
package keygen

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/google/uuid"
)

// MaxKeyLength is the longest key S3 accepts.
const MaxKeyLength = 1024

type Generator interface {
	Generate() string
}

// UUIDGenerator spreads keys by creation date: files/<yyyy>/<mm>/<dd>/<uuid>.
type UUIDGenerator struct {
	now     func() time.Time
	newUUID func() uuid.UUID
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{now: time.Now, newUUID: uuid.New}
}

func (g *UUIDGenerator) Generate() string {
	d := g.now().UTC()
	return fmt.Sprintf("files/%04d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), g.newUUID())
}

// Validate checks a caller-supplied key.
func Validate(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: key is empty", common.ErrInvalidArgument)
	case len(key) > MaxKeyLength:
		return fmt.Errorf("%w: key longer than %d bytes", common.ErrInvalidArgument, MaxKeyLength)
	case strings.HasPrefix(key, "/"):
		return fmt.Errorf("%w: key must not start with /", common.ErrInvalidArgument)
	}
	return nil
}

// Resolve returns key when supplied and valid, otherwise a fresh key from g.
func Resolve(g Generator, key *string) (string, error) {
	if key == nil {
		return g.Generate(), nil
	}
	if err := Validate(*key); err != nil {
		return "", err
	}
	return *key, nil
}
