// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client. The ledger uses it for two things: exporting
// reconciled snapshots, and (with cache.driver=object) as the backend of the
// local durable cache.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.EnsureBucket(ctx, client, "ledger", "")
package storage
