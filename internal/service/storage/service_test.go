package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaultdrop-backend/internal/crypto"
)

// Mocks
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStore) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, size, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockObjectStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func newTestService(t *testing.T, store *MockObjectStore) *Service {
	t.Helper()

	engine, err := crypto.NewEngine("test-master-secret")
	require.NoError(t, err)

	store.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil).Once()
	service, err := NewService(store, "test-bucket", engine)
	require.NoError(t, err)

	return service
}

func TestNewService_CreatesMissingBucket(t *testing.T) {
	store := new(MockObjectStore)
	engine, err := crypto.NewEngine("test-master-secret")
	require.NoError(t, err)

	store.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)
	store.On("MakeBucket", mock.Anything, "test-bucket", mock.Anything).Return(nil)

	service, err := NewService(store, "test-bucket", engine)

	assert.NoError(t, err)
	assert.NotNil(t, service)
	store.AssertExpectations(t)
}

func TestPut_EncryptsBeforeWriting(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	ownerID := uuid.New()
	plaintext := []byte("ten bytes!")

	var written []byte
	store.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			written = data
		}).
		Return(minio.UploadInfo{}, nil)

	storageKey, err := service.Put(context.Background(), ownerID, plaintext)

	require.NoError(t, err)
	assert.Contains(t, storageKey, "users/"+ownerID.String()+"/")
	// The store only ever sees the envelope, never the plaintext
	assert.NotContains(t, string(written), string(plaintext))
	assert.Greater(t, len(written), len(plaintext))
	store.AssertExpectations(t)
}

func TestPutGet_RoundTrip(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	plaintext := []byte("round trip payload")

	var written []byte
	store.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			written = data
		}).
		Return(minio.UploadInfo{}, nil)

	storageKey, err := service.Put(context.Background(), uuid.New(), plaintext)
	require.NoError(t, err)

	store.On("GetObject", mock.Anything, "test-bucket", storageKey, mock.Anything).
		Return(io.NopCloser(bytes.NewReader(written)), nil)

	got, err := service.Get(context.Background(), storageKey)

	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestGet_CorruptBlob(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	store.On("GetObject", mock.Anything, "test-bucket", "users/x/y", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte("too short"))), nil)

	_, err := service.Get(context.Background(), "users/x/y")

	assert.ErrorIs(t, err, crypto.ErrCorruptCiphertext)
}

func TestGet_MissingObject(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	store.On("GetObject", mock.Anything, "test-bucket", "users/x/gone", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

	_, err := service.Get(context.Background(), "users/x/gone")

	assert.ErrorIs(t, err, ErrObjectUnavailable)
}

func TestDelete_RetriesTransientFailures(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	transient := minio.ErrorResponse{Code: "SlowDown"}
	store.On("RemoveObject", mock.Anything, "test-bucket", "users/x/y", mock.Anything).
		Return(error(transient)).Twice()
	store.On("RemoveObject", mock.Anything, "test-bucket", "users/x/y", mock.Anything).
		Return(nil).Once()

	err := service.Delete(context.Background(), "users/x/y")

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDelete_AbsentObjectIsNotAnError(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	store.On("RemoveObject", mock.Anything, "test-bucket", "users/x/gone", mock.Anything).
		Return(error(minio.ErrorResponse{Code: "NoSuchKey"})).Once()

	err := service.Delete(context.Background(), "users/x/gone")

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDelete_GivesUpAfterBoundedRetries(t *testing.T) {
	store := new(MockObjectStore)
	service := newTestService(t, store)

	store.On("RemoveObject", mock.Anything, "test-bucket", "users/x/stuck", mock.Anything).
		Return(error(minio.ErrorResponse{Code: "SlowDown"}))

	err := service.Delete(context.Background(), "users/x/stuck")

	assert.Error(t, err)
	// Initial attempt plus the bounded retries, no more
	store.AssertNumberOfCalls(t, "RemoveObject", 4)
}
