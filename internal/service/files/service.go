// Package files implements upload, listing, download, and deletion of
// encrypted files, plus anonymous downloads through shareable links.
package files

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vaultdrop-backend/internal/access"
	"vaultdrop-backend/internal/domain"
	"vaultdrop-backend/internal/repository/postgres"
	"vaultdrop-backend/internal/service/storage"
	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/logger"
	"vaultdrop-backend/pkg/sanitize"
)

// FileRepository interface
type FileRepository interface {
	Create(ctx context.Context, file *domain.File) error
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.File, error)
	ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.File, error)
	ListNotOwned(ctx context.Context, userID uuid.UUID) ([]*domain.File, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// ShareRepository interface for loading the share row that feeds the
// access decision
type ShareRepository interface {
	GetByFileAndUser(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error)
}

// LinkRepository interface
type LinkRepository interface {
	GetByID(ctx context.Context, linkID uuid.UUID) (*domain.ShareableLink, error)
}

// UserRepository interface, used to resolve owner emails for listings
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// BlobStore interface over the encrypted object store
type BlobStore interface {
	Put(ctx context.Context, ownerID uuid.UUID, data []byte) (string, error)
	Get(ctx context.Context, storageKey string) ([]byte, error)
	Delete(ctx context.Context, storageKey string) error
}

// Service handles file business logic
type Service struct {
	fileRepo  FileRepository
	shareRepo ShareRepository
	linkRepo  LinkRepository
	userRepo  UserRepository
	store     BlobStore
	now       func() time.Time
}

// NewService creates a new file service
func NewService(fileRepo FileRepository, shareRepo ShareRepository, linkRepo LinkRepository, userRepo UserRepository, store BlobStore) *Service {
	return &Service{
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
		linkRepo:  linkRepo,
		userRepo:  userRepo,
		store:     store,
		now:       time.Now,
	}
}

// UploadInput contains everything needed to store one file
type UploadInput struct {
	Name        string
	ContentType string
	Data        []byte

	// Set when the client already encrypted the bytes itself. Key and IV
	// are opaque to the server.
	IsClientEncrypted bool
	ClientKey         string
	ClientIV          string
}

// Upload encrypts and stores the file bytes, then records the metadata.
// Bytes go first so a metadata row never points at a missing object; if the
// record insert fails the stored object is removed again.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, input *UploadInput) (*domain.FileResponse, error) {
	name := sanitize.Filename(input.Name)
	if name == "" {
		return nil, apperrors.ValidationError("file name is required")
	}
	if len(input.Data) == 0 {
		return nil, apperrors.ValidationError("file is empty")
	}
	if input.IsClientEncrypted && (input.ClientKey == "" || input.ClientIV == "") {
		return nil, apperrors.ValidationError("client-encrypted uploads must include key and iv")
	}

	storageKey, err := s.store.Put(ctx, ownerID, input.Data)
	if err != nil {
		return nil, apperrors.StorageError(err)
	}

	file := &domain.File{
		FileID:            uuid.New(),
		OwnerID:           ownerID,
		Name:              name,
		Size:              int64(len(input.Data)),
		ContentType:       input.ContentType,
		StorageKey:        storageKey,
		IsClientEncrypted: input.IsClientEncrypted,
	}
	if input.IsClientEncrypted {
		file.ClientKey = &input.ClientKey
		file.ClientIV = &input.ClientIV
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, storageKey); delErr != nil {
			logger.Error("failed to remove orphaned object after metadata insert failure",
				zap.String("storage_key", storageKey), zap.Error(delErr))
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("file uploaded",
		zap.String("file_id", file.FileID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int64("size", file.Size))

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return file.ToResponse("", true), nil
	}
	return file.ToResponse(owner.Email, true), nil
}

// ListOwned returns the caller's own files
func (s *Service) ListOwned(ctx context.Context, principal access.Principal) ([]*domain.FileResponse, error) {
	files, err := s.fileRepo.ListByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return s.toResponses(ctx, files, principal), nil
}

// ListShared returns files the caller can see but does not own: files with
// an explicit share row, or for admins every file they do not own.
func (s *Service) ListShared(ctx context.Context, principal access.Principal) ([]*domain.FileResponse, error) {
	var (
		files []*domain.File
		err   error
	)
	if principal.Role == domain.RoleAdmin {
		files, err = s.fileRepo.ListNotOwned(ctx, principal.UserID)
	} else {
		files, err = s.fileRepo.ListSharedWith(ctx, principal.UserID)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return s.toResponses(ctx, files, principal), nil
}

// DownloadOutput carries the decrypted bytes plus what the client needs to
// undo its own encryption layer, if any
type DownloadOutput struct {
	Name              string
	ContentType       string
	Data              []byte
	IsClientEncrypted bool
	ClientKey         string
	ClientIV          string
}

// Download returns the server-decrypted bytes of a file the principal may
// download. Client-encrypted files come back still wrapped in the client's
// layer, together with the stored key and IV.
func (s *Service) Download(ctx context.Context, principal access.Principal, fileID uuid.UUID) (*DownloadOutput, error) {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	level, err := s.evaluate(ctx, principal, file)
	if err != nil {
		return nil, err
	}
	if !level.Allows(access.Download) {
		return nil, apperrors.ForbiddenError("you do not have permission to download this file")
	}

	return s.fetch(ctx, file)
}

// Delete removes a file's object and metadata. Requires MANAGE. Object
// removal runs first with bounded retries; the metadata row only disappears
// once the bytes are gone (or already absent). Shares and links go with the
// row via cascading deletes.
func (s *Service) Delete(ctx context.Context, principal access.Principal, fileID uuid.UUID) error {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return err
	}

	level, err := s.evaluate(ctx, principal, file)
	if err != nil {
		return err
	}
	if !level.Allows(access.Manage) {
		return apperrors.ForbiddenError("you do not have permission to delete this file")
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		return apperrors.StorageError(err)
	}

	if err := s.fileRepo.Delete(ctx, fileID); err != nil && !errors.Is(err, postgres.ErrNotFound) {
		return apperrors.DatabaseError(err)
	}

	logger.Info("file deleted",
		zap.String("file_id", fileID.String()),
		zap.String("deleted_by", principal.UserID.String()))

	return nil
}

// DownloadByLink serves a file through an unexpired shareable link. The link
// is the credential: no principal, no access evaluation.
func (s *Service) DownloadByLink(ctx context.Context, linkID uuid.UUID) (*DownloadOutput, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.LinkNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if link.Expired(s.now()) {
		return nil, apperrors.LinkExpiredError()
	}

	file, err := s.getFile(ctx, link.FileID)
	if err != nil {
		return nil, err
	}

	return s.fetch(ctx, file)
}

// fetch pulls and decrypts the object. A missing object means the metadata
// row is an orphan: the row is garbage-collected and the file reported
// missing.
func (s *Service) fetch(ctx context.Context, file *domain.File) (*DownloadOutput, error) {
	data, err := s.store.Get(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectUnavailable) {
			s.collectOrphan(ctx, file)
			return nil, apperrors.FileNotFoundError()
		}
		return nil, apperrors.StorageError(err)
	}

	out := &DownloadOutput{
		Name:              file.Name,
		ContentType:       file.ContentType,
		Data:              data,
		IsClientEncrypted: file.IsClientEncrypted,
	}
	if file.IsClientEncrypted {
		if file.ClientKey != nil {
			out.ClientKey = *file.ClientKey
		}
		if file.ClientIV != nil {
			out.ClientIV = *file.ClientIV
		}
	}
	return out, nil
}

func (s *Service) collectOrphan(ctx context.Context, file *domain.File) {
	logger.Warn("object missing from storage, removing orphaned metadata",
		zap.String("file_id", file.FileID.String()),
		zap.String("storage_key", file.StorageKey))
	if err := s.fileRepo.Delete(ctx, file.FileID); err != nil && !errors.Is(err, postgres.ErrNotFound) {
		logger.Error("failed to remove orphaned file record",
			zap.String("file_id", file.FileID.String()), zap.Error(err))
	}
}

func (s *Service) getFile(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.FileNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return file, nil
}

// evaluate loads the share row for (file, principal) when one could matter
// and computes the capability level
func (s *Service) evaluate(ctx context.Context, principal access.Principal, file *domain.File) (access.Level, error) {
	var share *domain.FileShare
	if principal.Role != domain.RoleAdmin && file.OwnerID != principal.UserID {
		row, err := s.shareRepo.GetByFileAndUser(ctx, file.FileID, principal.UserID)
		if err != nil && !errors.Is(err, postgres.ErrNotFound) {
			return access.None, apperrors.DatabaseError(err)
		}
		share = row
	}
	return access.Evaluate(principal, file, share), nil
}

func (s *Service) toResponses(ctx context.Context, files []*domain.File, principal access.Principal) []*domain.FileResponse {
	emails := make(map[uuid.UUID]string)
	responses := make([]*domain.FileResponse, 0, len(files))
	for _, f := range files {
		email, ok := emails[f.OwnerID]
		if !ok {
			if owner, err := s.userRepo.GetByID(ctx, f.OwnerID); err == nil {
				email = owner.Email
			}
			emails[f.OwnerID] = email
		}
		responses = append(responses, f.ToResponse(email, f.OwnerID == principal.UserID))
	}
	return responses
}
