package kv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"party-ledger/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectStore keeps each key as an object under prefix in a bucket.
type ObjectStore struct {
	client  storage.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewObjectStore creates an object-backed store.
func NewObjectStore(client storage.Client, bucket, prefix string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix, timeout: 30 * time.Second}
}

func (s *ObjectStore) objectName(key string) string {
	return s.prefix + key + ".json"
}

func (s *ObjectStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	reader, err := s.client.GetObject(ctx, s.bucket, s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer reader.Close()

	// minio reports a missing key lazily, on first read
	data, err := io.ReadAll(reader)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

func (s *ObjectStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data := []byte(value)
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(key), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}
