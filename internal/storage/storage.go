// Package storage provides object storage for encrypted document payloads on
// top of gocloud.dev/blob. The bucket is chosen by URL (STORAGE_URL):
//
//	mem://                       in-memory, lost on restart
//	file:///var/lib/safeo/blobs  local directory
//
// Objects are written already encrypted; the store never sees plaintext.
package storage

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"

	// Register blob drivers
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

var (
	// ErrObjectNotFound indicates no object exists under the key.
	ErrObjectNotFound = apperrors.Wrap(apperrors.ErrNotFound, "object not found")

	// ErrUnavailable indicates the backing store failed.
	ErrUnavailable = apperrors.Wrap(apperrors.ErrUnavailable, "object storage unavailable")
)

// ObjectStore stores opaque byte objects by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// BucketStore implements ObjectStore with a gocloud blob bucket.
type BucketStore struct {
	bucket *blob.Bucket
}

// Open opens the bucket at url.
func Open(ctx context.Context, url string) (*BucketStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "failed to open storage bucket: "+err.Error())
	}
	return &BucketStore{bucket: bucket}, nil
}

// NewBucketStore wraps an already opened bucket.
func NewBucketStore(bucket *blob.Bucket) *BucketStore {
	return &BucketStore{bucket: bucket}
}

// Put writes data under key, replacing any existing object.
func (s *BucketStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return translate(err)
	}
	return nil
}

// Get reads the object stored under key.
func (s *BucketStore) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, translate(err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

// Delete removes the object under key. A missing object is not an error.
func (s *BucketStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return translate(err)
	}
	return nil
}

// Ping reports whether the bucket is reachable.
func (s *BucketStore) Ping(ctx context.Context) error {
	if _, err := s.bucket.IsAccessible(ctx); err != nil {
		return translate(err)
	}
	return nil
}

// Close releases the bucket.
func (s *BucketStore) Close() error {
	return s.bucket.Close()
}

func translate(err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return ErrObjectNotFound
	}
	return apperrors.Join(ErrUnavailable, err)
}
