package files

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	Lock(ctx context.Context, id string) error
	UpdateDirectory(ctx context.Context, id, directoryID string) (*models.File, error)
	UpdateName(ctx context.Context, id, name string) (*models.File, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, query string) ([]*models.File, error)
}
