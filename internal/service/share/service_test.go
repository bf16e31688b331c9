package share

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaultdrop-backend/internal/access"
	"vaultdrop-backend/internal/domain"
	"vaultdrop-backend/internal/repository/postgres"
	apperrors "vaultdrop-backend/pkg/errors"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.File), args.Error(1)
}

type MockShareRepository struct {
	mock.Mock
}

func (m *MockShareRepository) Upsert(ctx context.Context, share *domain.FileShare) error {
	args := m.Called(ctx, share)
	return args.Error(0)
}

func (m *MockShareRepository) GetByFileAndUser(ctx context.Context, fileID, userID uuid.UUID) (*domain.FileShare, error) {
	args := m.Called(ctx, fileID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileShare), args.Error(1)
}

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.ShareableLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type testEnv struct {
	fileRepo  *MockFileRepository
	shareRepo *MockShareRepository
	linkRepo  *MockLinkRepository
	userRepo  *MockUserRepository
	svc       *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		fileRepo:  new(MockFileRepository),
		shareRepo: new(MockShareRepository),
		linkRepo:  new(MockLinkRepository),
		userRepo:  new(MockUserRepository),
	}
	env.svc = NewService(env.fileRepo, env.shareRepo, env.linkRepo, env.userRepo, 24)
	return env
}

func testFile(ownerID uuid.UUID) *domain.File {
	return &domain.File{
		FileID:  uuid.New(),
		OwnerID: ownerID,
		Name:    "report.pdf",
	}
}

func TestCreateShare_OwnerGrantsDownload(t *testing.T) {
	env := newTestEnv()
	ownerID := uuid.New()
	file := testFile(ownerID)
	target := &domain.User{UserID: uuid.New(), Email: "bob@example.com"}

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.userRepo.On("GetByEmail", mock.Anything, "bob@example.com").Return(target, nil)
	env.shareRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.FileShare")).Return(nil)

	share, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: ownerID, Role: domain.RoleUser},
		file.FileID, "bob@example.com", domain.PermissionDownload)

	require.NoError(t, err)
	assert.Equal(t, target.UserID, share.UserID)
	assert.Equal(t, domain.PermissionDownload, share.Permission)
	env.shareRepo.AssertExpectations(t)
}

func TestCreateShare_NonOwnerForbidden(t *testing.T) {
	env := newTestEnv()
	file := testFile(uuid.New())
	stranger := uuid.New()

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.shareRepo.On("GetByFileAndUser", mock.Anything, file.FileID, stranger).Return(nil, postgres.ErrNotFound)

	_, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: stranger, Role: domain.RoleUser},
		file.FileID, "bob@example.com", domain.PermissionView)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
	env.shareRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// A DOWNLOAD share grants downloads, not management: the grantee cannot
// re-share the file.
func TestCreateShare_GranteeCannotReshare(t *testing.T) {
	env := newTestEnv()
	file := testFile(uuid.New())
	grantee := uuid.New()

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.shareRepo.On("GetByFileAndUser", mock.Anything, file.FileID, grantee).Return(&domain.FileShare{
		FileID: file.FileID, UserID: grantee, Permission: domain.PermissionDownload,
	}, nil)

	_, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: grantee, Role: domain.RoleUser},
		file.FileID, "carol@example.com", domain.PermissionView)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestCreateShare_AdminCanShareAnyFile(t *testing.T) {
	env := newTestEnv()
	file := testFile(uuid.New())
	admin := uuid.New()
	target := &domain.User{UserID: uuid.New(), Email: "bob@example.com"}

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.userRepo.On("GetByEmail", mock.Anything, "bob@example.com").Return(target, nil)
	env.shareRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	_, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: admin, Role: domain.RoleAdmin},
		file.FileID, "bob@example.com", domain.PermissionView)

	require.NoError(t, err)
	env.shareRepo.AssertNotCalled(t, "GetByFileAndUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateShare_UnknownTarget(t *testing.T) {
	env := newTestEnv()
	ownerID := uuid.New()
	file := testFile(ownerID)

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, postgres.ErrNotFound)

	_, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: ownerID, Role: domain.RoleUser},
		file.FileID, "nobody@example.com", domain.PermissionView)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUserNotFound))
}

func TestCreateShare_SelfShareRejected(t *testing.T) {
	env := newTestEnv()
	ownerID := uuid.New()
	file := testFile(ownerID)
	owner := &domain.User{UserID: ownerID, Email: "alice@example.com"}

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(owner, nil)

	_, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: ownerID, Role: domain.RoleUser},
		file.FileID, "alice@example.com", domain.PermissionView)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	env.shareRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestCreateShare_InvalidPermission(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CreateShare(context.Background(),
		access.Principal{UserID: uuid.New(), Role: domain.RoleUser},
		uuid.New(), "bob@example.com", "OWN")

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestCreateLink_Success(t *testing.T) {
	env := newTestEnv()
	ownerID := uuid.New()
	file := testFile(ownerID)

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.linkRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ShareableLink")).Return(nil)

	before := time.Now()
	link, err := env.svc.CreateLink(context.Background(),
		access.Principal{UserID: ownerID, Role: domain.RoleUser},
		file.FileID, 2)

	require.NoError(t, err)
	assert.Equal(t, file.FileID, link.FileID)
	assert.Equal(t, ownerID, link.CreatedBy)
	assert.WithinDuration(t, before.Add(2*time.Hour), link.ExpiresAt, 5*time.Second)
}

func TestCreateLink_DurationOutOfBounds(t *testing.T) {
	env := newTestEnv()
	principal := access.Principal{UserID: uuid.New(), Role: domain.RoleUser}

	for _, hours := range []int{0, -1, 25} {
		_, err := env.svc.CreateLink(context.Background(), principal, uuid.New(), hours)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidDuration), "hours=%d", hours)
	}
	env.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLink_NonOwnerForbidden(t *testing.T) {
	env := newTestEnv()
	file := testFile(uuid.New())
	stranger := uuid.New()

	env.fileRepo.On("GetByID", mock.Anything, file.FileID).Return(file, nil)
	env.shareRepo.On("GetByFileAndUser", mock.Anything, file.FileID, stranger).Return(nil, postgres.ErrNotFound)

	_, err := env.svc.CreateLink(context.Background(),
		access.Principal{UserID: stranger, Role: domain.RoleUser},
		file.FileID, 2)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestCreateLink_UnknownFile(t *testing.T) {
	env := newTestEnv()
	fileID := uuid.New()

	env.fileRepo.On("GetByID", mock.Anything, fileID).Return(nil, postgres.ErrNotFound)

	_, err := env.svc.CreateLink(context.Background(),
		access.Principal{UserID: uuid.New(), Role: domain.RoleUser},
		fileID, 2)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileNotFound))
}
