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

// ShareRepository handles FileShare persistence
type ShareRepository struct {
	pool *pgxpool.Pool
}

// NewShareRepository creates a new ShareRepository
func NewShareRepository(pool *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{pool: pool}
}

// Upsert creates a share or, if one already exists for (file, user),
// updates its permission. The UNIQUE(file_id, user_id) constraint is what
// keeps re-sharing from duplicating rows.
func (r *ShareRepository) Upsert(ctx context.Context, share *domain.FileShare) error {
	query := `
		INSERT INTO file_shares (share_id, file_id, user_id, permission)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id, user_id)
		DO UPDATE SET permission = EXCLUDED.permission, updated_at = now()
		RETURNING share_id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		share.ShareID,
		share.FileID,
		share.UserID,
		share.Permission,
	).Scan(&share.ShareID, &share.CreatedAt, &share.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert share: %w", err)
	}

	return nil
}

// GetByFileAndUser retrieves the share for a (file, user) pair
func (r *ShareRepository) GetByFileAndUser(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error) {
	query := `
		SELECT share_id, file_id, user_id, permission, created_at, updated_at
		FROM file_shares
		WHERE file_id = $1 AND user_id = $2
	`

	share := &domain.FileShare{}
	err := r.pool.QueryRow(ctx, query, fileID, userID).Scan(
		&share.ShareID,
		&share.FileID,
		&share.UserID,
		&share.Permission,
		&share.CreatedAt,
		&share.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}

	return share, nil
}

// DeleteByFile removes all shares for a file. The schema cascades this on
// file deletion already; this exists for explicit orphan cleanup.
func (r *ShareRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM file_shares WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	return nil
}
