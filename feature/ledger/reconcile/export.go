package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"party-ledger/core/storage"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
)

// SnapshotPrefix is the object prefix of exported ledger views.
const SnapshotPrefix = "snapshots/"

// Export uploads view as indented JSON and returns the object name.
func Export(ctx context.Context, client storage.Client, bucket string, view *LedgerView, at time.Time) (string, error) {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode ledger view: %w", err)
	}
	name := fmt.Sprintf("%sledger-%s.json", SnapshotPrefix, at.UTC().Format("20060102T150405Z"))
	_, err = client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", name, err)
	}
	return name, nil
}
