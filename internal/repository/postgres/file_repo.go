package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vaultdrop-backend/internal/domain"
)

// FileRepository handles file metadata persistence
type FileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

const fileColumns = `file_id, owner_id, name, size, content_type, storage_key, is_client_encrypted, client_key, client_iv, created_at`

func scanFile(row pgx.Row) (*domain.File, error) {
	file := &domain.File{}
	err := row.Scan(
		&file.FileID,
		&file.OwnerID,
		&file.Name,
		&file.Size,
		&file.ContentType,
		&file.StorageKey,
		&file.IsClientEncrypted,
		&file.ClientKey,
		&file.ClientIV,
		&file.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}
	return file, nil
}

// Create inserts a new file metadata record
func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	query := `
		INSERT INTO files (
			file_id, owner_id, name, size, content_type,
			storage_key, is_client_encrypted, client_key, client_iv
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		file.FileID,
		file.OwnerID,
		file.Name,
		file.Size,
		file.ContentType,
		file.StorageKey,
		file.IsClientEncrypted,
		file.ClientKey,
		file.ClientIV,
	).Scan(&file.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID
func (r *FileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_id = $1`
	return scanFile(r.pool.QueryRow(ctx, query, fileID))
}

// ListByOwner returns files owned by a user, newest first
func (r *FileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.queryFiles(ctx, query, ownerID)
}

// ListSharedWith returns files that carry an explicit share for the user,
// newest share first
func (r *FileRepository) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.File, error) {
	query := `
		SELECT f.file_id, f.owner_id, f.name, f.size, f.content_type, f.storage_key,
		       f.is_client_encrypted, f.client_key, f.client_iv, f.created_at
		FROM files f
		JOIN file_shares s ON s.file_id = f.file_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`
	return r.queryFiles(ctx, query, userID)
}

// ListNotOwned returns every file not owned by the user. This backs the
// admin view of the shared-files listing.
func (r *FileRepository) ListNotOwned(ctx context.Context, userID uuid.UUID) ([]*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id <> $1 ORDER BY created_at DESC`
	return r.queryFiles(ctx, query, userID)
}

func (r *FileRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*domain.File, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// Delete removes a file record. Shares and links cascade at the schema
// level.
func (r *FileRepository) Delete(ctx context.Context, fileID uuid.UUID) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
