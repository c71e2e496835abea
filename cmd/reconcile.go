package cmd

import (
	"context"
	"fmt"
	"time"

	"party-ledger/core/storage"
	"party-ledger/feature/ledger/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportFlag bool

// reconcileCmd runs one reconcile pass and reports what it found.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconcile pass and print the report",
	Long: `Merges the local cache with the remote database, repairs transaction
links, reconstructs missing games and recomputes balances.

Examples:
  # Report only
  reconcile

  # Also upload the reconciled view to object storage
  reconcile --export`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&exportFlag, "export", false, "Upload the reconciled view to object storage")
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, migrateFlag)
	if err != nil {
		return err
	}
	defer a.close()
	l := a.logger

	l.Info("Starting reconciliation")
	view, err := a.engine.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile: %w", err)
	}
	printReconcileReport(l, view)

	if !exportFlag {
		return nil
	}
	if a.storage == nil {
		return fmt.Errorf("export requested but no storage client is configured")
	}
	if err := storage.EnsureBucket(ctx, a.storage, a.cfg.Storage.Bucket, a.cfg.Storage.Region); err != nil {
		return err
	}
	name, err := reconcile.Export(ctx, a.storage, a.cfg.Storage.Bucket, view, time.Now())
	if err != nil {
		return err
	}
	l.Info("Snapshot exported", zap.String("bucket", a.cfg.Storage.Bucket), zap.String("object", name))
	return nil
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, view *reconcile.LedgerView) {
	r := view.Report

	l.Info("Reconciliation report",
		zap.Int("games", len(view.Games)),
		zap.Int("transactions", len(view.Transactions)),
		zap.Int("players", len(view.Players)),
		zap.Int("repaired", r.Repaired),
		zap.Int("synthesized", r.Synthesized),
		zap.Int("drift_synced", r.DriftSynced),
		zap.Int("unresolved", r.Unresolved),
		zap.Int("pending_writes", view.PendingWrites),
		zap.Bool("degraded", view.Degraded),
		zap.Duration("duration", r.Duration),
	)

	// Show a sample of issues (max 5 for logger)
	maxShow := 5
	if len(view.Issues) < maxShow {
		maxShow = len(view.Issues)
	}
	for _, issue := range view.Issues[:maxShow] {
		l.Warn("Issue",
			zap.String("kind", string(issue.Kind)),
			zap.String("entity", issue.Entity),
			zap.String("id", issue.ID),
			zap.String("detail", issue.Detail),
		)
	}
	if len(view.Issues) > maxShow {
		l.Info("Additional issues not shown", zap.Int("count", len(view.Issues)-maxShow))
	}
}
