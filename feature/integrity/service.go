package integrity

import (
	"context"
	"fmt"

	"party-ledger/core/storage"
	"party-ledger/feature/integrity/checks"
	"party-ledger/feature/ledger/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PendingSource lists the pending-write queue.
type PendingSource interface {
	Pending() ([]store.PendingEntry, error)
}

// Service handles integrity checks.
type Service struct {
	client  storage.Client
	bucket  string
	folders []string
	logger  *zap.Logger
	db      *gorm.DB
	queue   PendingSource
}

// NewService creates a new integrity service. client and db may be nil when
// the matching backend is not configured.
func NewService(client storage.Client, bucket string, folders []string, logger *zap.Logger, db *gorm.DB, queue PendingSource) *Service {
	return &Service{
		client:  client,
		bucket:  bucket,
		folders: folders,
		logger:  logger,
		db:      db,
		queue:   queue,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("storage client is not configured")
	}
	return checks.CheckStructure(ctx, s.client, s.bucket, s.folders)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return fmt.Errorf("storage client is not configured")
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckSchema compares the remote tables with the row models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, store.SchemaModels())
}

// CheckQueue summarizes the pending-write queue.
func (s *Service) CheckQueue() (checks.QueueReport, error) {
	entries, err := s.queue.Pending()
	if err != nil {
		return checks.QueueReport{}, err
	}
	return checks.CheckQueue(entries), nil
}
