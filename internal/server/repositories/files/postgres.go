package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/pgerrors"
)

const fileColumns = `id, name, directory_id, created_at, updated_at`

// PostgresRepository implements file storage over a dbx.DBTX (*sqlx.DB or *sqlx.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts file and fills in the server-assigned ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `INSERT INTO files (name, directory_id) VALUES ($1, $2)
		RETURNING ` + fileColumns

	if err := r.db.GetContext(ctx, file, query, file.Name, file.DirectoryID); err != nil {
		return fmt.Errorf("failed to insert file: %w", pgerrors.Map(err))
	}
	return nil
}

// GetByID returns the file row without versions.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	file := &models.File{}
	if err := r.db.GetContext(ctx, file, query, id); err != nil {
		return nil, fmt.Errorf("failed to select file: %w", pgerrors.Map(err))
	}
	return file, nil
}

// Lock takes a row lock on the file for the rest of the enclosing
// transaction. Concurrent lockers of the same id wait; once the holder
// deletes the row they observe ErrNotFound.
func (r *PostgresRepository) Lock(ctx context.Context, id string) error {
	query := `SELECT id FROM files WHERE id = $1 FOR UPDATE`

	var locked string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&locked); err != nil {
		return fmt.Errorf("failed to lock file: %w", pgerrors.Map(err))
	}
	return nil
}

// UpdateDirectory moves the file and returns the updated row.
func (r *PostgresRepository) UpdateDirectory(ctx context.Context, id, directoryID string) (*models.File, error) {
	query := `UPDATE files SET directory_id = $2, updated_at = now() WHERE id = $1
		RETURNING ` + fileColumns

	file := &models.File{}
	if err := r.db.GetContext(ctx, file, query, id, directoryID); err != nil {
		return nil, fmt.Errorf("failed to update directory: %w", pgerrors.Map(err))
	}
	return file, nil
}

// UpdateName renames the file and returns the updated row.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, name string) (*models.File, error) {
	query := `UPDATE files SET name = $2, updated_at = now() WHERE id = $1
		RETURNING ` + fileColumns

	file := &models.File{}
	if err := r.db.GetContext(ctx, file, query, id, name); err != nil {
		return nil, fmt.Errorf("failed to update name: %w", pgerrors.Map(err))
	}
	return file, nil
}

// Delete removes the file row. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", pgerrors.Map(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Find returns files whose name contains query, case-insensitively, ordered
// by name then id. The query is matched literally.
func (r *PostgresRepository) Find(ctx context.Context, query string) ([]*models.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY name ASC, id ASC`

	var result []*models.File
	if err := r.db.SelectContext(ctx, &result, q, likeEscaper.Replace(query)); err != nil {
		return nil, fmt.Errorf("failed to find files: %w", pgerrors.Map(err))
	}
	return result, nil
}
