package fileversions

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, v *models.FileVersion) error
	GetByID(ctx context.Context, id string) (*models.FileVersion, error)
	ListByFile(ctx context.Context, fileID string) ([]models.FileVersion, error)
	ListByFileIDs(ctx context.Context, fileIDs []string) (map[string][]models.FileVersion, error)
	ListKeysByFile(ctx context.Context, fileID string) ([]string, error)
	Page(ctx context.Context, fileID string, after *models.Cursor, limit int) ([]models.FileVersion, error)
	DeleteByFile(ctx context.Context, fileID string) (int64, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
}
