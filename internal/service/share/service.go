// Package share implements per-user file shares and anonymous expiring
// share links.
package share

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vaultdrop-backend/internal/access"
	"vaultdrop-backend/internal/domain"
	"vaultdrop-backend/internal/repository/postgres"
	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/logger"
	"vaultdrop-backend/pkg/sanitize"
)

// FileRepository interface
type FileRepository interface {
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error)
}

// ShareRepository interface
type ShareRepository interface {
	Upsert(ctx context.Context, share *domain.FileShare) error
	GetByFileAndUser(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error)
}

// LinkRepository interface
type LinkRepository interface {
	Create(ctx context.Context, link *domain.ShareableLink) error
}

// UserRepository interface, used to resolve share targets by email
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Service handles sharing business logic
type Service struct {
	fileRepo     FileRepository
	shareRepo    ShareRepository
	linkRepo     LinkRepository
	userRepo     UserRepository
	maxLinkHours int
	now          func() time.Time
}

// NewService creates a new share service. maxLinkHours bounds link lifetimes.
func NewService(fileRepo FileRepository, shareRepo ShareRepository, linkRepo LinkRepository, userRepo UserRepository, maxLinkHours int) *Service {
	return &Service{
		fileRepo:     fileRepo,
		shareRepo:    shareRepo,
		linkRepo:     linkRepo,
		userRepo:     userRepo,
		maxLinkHours: maxLinkHours,
		now:          time.Now,
	}
}

// CreateShare grants targetEmail access to the file at the given permission.
// Requires MANAGE on the file. Sharing the same file with the same user
// again updates the permission in place.
func (s *Service) CreateShare(ctx context.Context, principal access.Principal, fileID uuid.UUID, targetEmail, permission string) (*domain.FileShare, error) {
	if !domain.ValidPermission(permission) {
		return nil, apperrors.ValidationError("permission must be VIEW or DOWNLOAD")
	}

	file, level, err := s.manageLevel(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}
	if !level.Allows(access.Manage) {
		return nil, apperrors.ForbiddenError("you do not have permission to share this file")
	}

	target, err := s.userRepo.GetByEmail(ctx, sanitize.Email(targetEmail))
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if target.UserID == file.OwnerID {
		return nil, apperrors.InvalidInputError("cannot share a file with its owner")
	}

	share := &domain.FileShare{
		ShareID:    uuid.New(),
		FileID:     fileID,
		UserID:     target.UserID,
		Permission: permission,
	}
	if err := s.shareRepo.Upsert(ctx, share); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("file shared",
		zap.String("file_id", fileID.String()),
		zap.String("target_id", target.UserID.String()),
		zap.String("permission", permission))

	return share, nil
}

// CreateLink creates an anonymous download link valid for durationHours.
// Requires MANAGE on the file.
func (s *Service) CreateLink(ctx context.Context, principal access.Principal, fileID uuid.UUID, durationHours int) (*domain.ShareableLink, error) {
	if durationHours < 1 || durationHours > s.maxLinkHours {
		return nil, apperrors.InvalidDurationError(s.maxLinkHours)
	}

	_, level, err := s.manageLevel(ctx, principal, fileID)
	if err != nil {
		return nil, err
	}
	if !level.Allows(access.Manage) {
		return nil, apperrors.ForbiddenError("you do not have permission to create links for this file")
	}

	link := &domain.ShareableLink{
		LinkID:    uuid.New(),
		FileID:    fileID,
		CreatedBy: principal.UserID,
		ExpiresAt: s.now().Add(time.Duration(durationHours) * time.Hour),
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("share link created",
		zap.String("link_id", link.LinkID.String()),
		zap.String("file_id", fileID.String()),
		zap.Time("expires_at", link.ExpiresAt))

	return link, nil
}

func (s *Service) manageLevel(ctx context.Context, principal access.Principal, fileID uuid.UUID) (*domain.File, access.Level, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, access.None, apperrors.FileNotFoundError()
		}
		return nil, access.None, apperrors.DatabaseError(err)
	}

	var share *domain.FileShare
	if principal.Role != domain.RoleAdmin && file.OwnerID != principal.UserID {
		row, err := s.shareRepo.GetByFileAndUser(ctx, fileID, principal.UserID)
		if err != nil && !errors.Is(err, postgres.ErrNotFound) {
			return nil, access.None, apperrors.DatabaseError(err)
		}
		share = row
	}

	return file, access.Evaluate(principal, file, share), nil
}
