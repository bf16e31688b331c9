// Package user implements the admin-facing user directory: listing users
// and changing roles.
package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vaultdrop-backend/internal/domain"
	"vaultdrop-backend/internal/repository/postgres"
	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/logger"
)

// UserRepository interface
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	List(ctx context.Context, excludeID uuid.UUID) ([]*domain.User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) error
}

// Service handles user administration
type Service struct {
	userRepo UserRepository
}

// NewService creates a new user service
func NewService(userRepo UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List returns every user except the caller. Used by owners picking share
// targets and by admins managing roles.
func (s *Service) List(ctx context.Context, callerID uuid.UUID) ([]*domain.UserResponse, error) {
	users, err := s.userRepo.List(ctx, callerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses := make([]*domain.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, nil
}

// UpdateRole changes a user's role. Admin-only; admins cannot change their
// own role, which keeps at least one admin in existence.
func (s *Service) UpdateRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*domain.UserResponse, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.ValidationError("role must be one of ADMIN, USER, GUEST")
	}
	if actorID == targetID {
		return nil, apperrors.InvalidInputError("you cannot change your own role")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("user role updated",
		zap.String("target_id", targetID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("old_role", target.Role),
		zap.String("new_role", role))

	target.Role = role
	return target.ToResponse(), nil
}
