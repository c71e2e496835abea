package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// replayCmd drains the pending-write queue once.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay queued writes against the remote database once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(ctx, migrateFlag)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.ledger.Ping(ctx); err != nil {
			return fmt.Errorf("remote database unreachable: %w", err)
		}

		report, err := a.gateway.Replay(ctx)
		if err != nil {
			return fmt.Errorf("failed to replay pending writes: %w", err)
		}
		a.logger.Info("Replay report",
			zap.Int("attempted", report.Attempted),
			zap.Int("applied", report.Applied),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
			zap.Int("remaining", report.Remaining),
			zap.Duration("duration", report.Duration),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(replayCmd)
}
