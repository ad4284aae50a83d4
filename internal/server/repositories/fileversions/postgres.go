package fileversions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/pgerrors"
	"github.com/jmoiron/sqlx"
)

const versionColumns = `id, file_id, name, mime_type, size, key, created_at, updated_at`

// PostgresRepository implements version storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts v and fills in ID and timestamps. A missing parent file
// surfaces as common.ErrReferentialViolation, a reused key as
// common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, v *models.FileVersion) error {
	query := `INSERT INTO file_versions (file_id, name, mime_type, size, key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + versionColumns

	if err := r.db.GetContext(ctx, v, query, v.FileID, v.Name, v.MimeType, v.Size, v.Key); err != nil {
		return fmt.Errorf("failed to insert file version: %w", pgerrors.Map(err))
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM file_versions WHERE id = $1`

	v := &models.FileVersion{}
	if err := r.db.GetContext(ctx, v, query, id); err != nil {
		return nil, fmt.Errorf("failed to select file version: %w", pgerrors.Map(err))
	}
	return v, nil
}

// ListByFile returns all versions of a file ordered by (created_at, id).
func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]models.FileVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM file_versions
		WHERE file_id = $1 ORDER BY created_at ASC, id ASC`

	result := []models.FileVersion{}
	if err := r.db.SelectContext(ctx, &result, query, fileID); err != nil {
		return nil, fmt.Errorf("failed to list file versions: %w", pgerrors.Map(err))
	}
	return result, nil
}

// ListByFileIDs loads the versions of several files in one query, grouped by
// file id and ordered within each group.
func (r *PostgresRepository) ListByFileIDs(ctx context.Context, fileIDs []string) (map[string][]models.FileVersion, error) {
	result := make(map[string][]models.FileVersion, len(fileIDs))
	if len(fileIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT `+versionColumns+` FROM file_versions
		WHERE file_id IN (?) ORDER BY file_id, created_at ASC, id ASC`, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []models.FileVersion
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("failed to list file versions: %w", pgerrors.Map(err))
	}
	for _, v := range rows {
		result[v.FileID] = append(result[v.FileID], v)
	}
	return result, nil
}

// ListKeysByFile returns the storage keys of every version of the file.
func (r *PostgresRepository) ListKeysByFile(ctx context.Context, fileID string) ([]string, error) {
	query := `SELECT key FROM file_versions WHERE file_id = $1 ORDER BY created_at ASC, id ASC`

	keys := []string{}
	if err := r.db.SelectContext(ctx, &keys, query, fileID); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", pgerrors.Map(err))
	}
	return keys, nil
}

// Page returns up to limit versions strictly after the cursor in
// (created_at, id) order. An empty fileID pages across all files.
func (r *PostgresRepository) Page(ctx context.Context, fileID string, after *models.Cursor, limit int) ([]models.FileVersion, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if fileID != "" {
		where = append(where, "file_id = "+arg(fileID))
	}
	if after != nil {
		where = append(where, fmt.Sprintf("(created_at, id) > (%s, %s::uuid)", arg(after.CreatedAt), arg(after.ID)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + versionColumns + ` FROM file_versions`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at ASC, id ASC LIMIT " + arg(limit))

	result := []models.FileVersion{}
	if err := r.db.SelectContext(ctx, &result, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to page file versions: %w", pgerrors.Map(err))
	}
	return result, nil
}

// DeleteByFile removes every version of the file and reports how many rows
// went away.
func (r *PostgresRepository) DeleteByFile(ctx context.Context, fileID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file_versions WHERE file_id = $1`, fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete file versions: %w", pgerrors.Map(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// ExistsByKey reports whether some version references key.
func (r *PostgresRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM file_versions WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up key: %w", pgerrors.Map(err))
	}
	return exists, nil
}
