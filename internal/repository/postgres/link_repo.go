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

// LinkRepository handles ShareableLink persistence
type LinkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository creates a new LinkRepository
func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// Create inserts a new shareable link
func (r *LinkRepository) Create(ctx context.Context, link *domain.ShareableLink) error {
	query := `
		INSERT INTO shareable_links (link_id, file_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		link.LinkID,
		link.FileID,
		link.CreatedBy,
		link.ExpiresAt,
	).Scan(&link.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by ID. Expired links are returned as-is; expiry
// is enforced by the caller, not by purging rows.
func (r *LinkRepository) GetByID(ctx context.Context, linkID uuid.UUID) (*domain.ShareableLink, error) {
	query := `
		SELECT link_id, file_id, created_by, created_at, expires_at
		FROM shareable_links
		WHERE link_id = $1
	`

	link := &domain.ShareableLink{}
	err := r.pool.QueryRow(ctx, query, linkID).Scan(
		&link.LinkID,
		&link.FileID,
		&link.CreatedBy,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}
