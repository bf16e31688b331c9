// Package storage implements the encrypted object store. Every blob is
// passed through the envelope cipher on the way in and out; plaintext never
// touches the backing store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"vaultdrop-backend/internal/crypto"
	"vaultdrop-backend/pkg/constants"
	"vaultdrop-backend/pkg/logger"
)

// ErrObjectUnavailable reports that the backing bytes for a storage key are
// missing or unreadable. Callers treat this as "file not found" and may
// garbage-collect the orphaned metadata.
var ErrObjectUnavailable = errors.New("object unavailable")

// Service persists encrypted blobs keyed by generated storage keys
type Service struct {
	store  ObjectStore
	engine *crypto.Engine
	bucket string
}

// NewService creates the encrypted object store and ensures the bucket exists
func NewService(store ObjectStore, bucket string, engine *crypto.Engine) (*Service, error) {
	ctx := context.Background()

	exists, err := store.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := store.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Service{
		store:  store,
		engine: engine,
		bucket: bucket,
	}, nil
}

// Put encrypts data and writes it under a generated key namespaced by owner.
// Keys are random, never derived from user-supplied names.
func (s *Service) Put(ctx context.Context, ownerID uuid.UUID, data []byte) (string, error) {
	blob, err := s.engine.Encrypt(data)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt object: %w", err)
	}

	storageKey := fmt.Sprintf("users/%s/%s", ownerID, uuid.New())

	_, err = s.store.PutObject(ctx, s.bucket, storageKey, bytes.NewReader(blob), int64(len(blob)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}

	return storageKey, nil
}

// Get reads and decrypts a stored blob. Missing or unreadable backing bytes
// surface as ErrObjectUnavailable; corrupt ciphertext propagates as
// crypto.ErrCorruptCiphertext and is never retried.
func (s *Service) Get(ctx context.Context, storageKey string) ([]byte, error) {
	obj, err := s.store.GetObject(ctx, s.bucket, storageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrObjectUnavailable, err)
	}
	defer obj.Close()

	blob, err := io.ReadAll(obj)
	if err != nil {
		// MinIO reports a missing key at read time, not at GetObject
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %v", ErrObjectUnavailable, err)
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	plaintext, err := s.engine.Decrypt(blob)
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}

// Delete removes a stored blob, retrying transient failures a bounded number
// of times. Deleting an absent object is not an error.
func (s *Service) Delete(ctx context.Context, storageKey string) error {
	operation := func() error {
		err := s.store.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{})
		if err == nil || isNotFound(err) {
			return nil
		}
		logger.Warn("object delete failed, will retry",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(constants.DeleteRetryInterval),
			constants.DeleteRetryAttempts,
		),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("failed to delete object after retries: %w", err)
	}

	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
