package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// pendingCmd lists the pending-write queue.
var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List writes waiting for the remote database",
	Long:  `Lists the durable pending-write queue in replay order. Use --json for the full entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := newApp(context.Background(), false)
		if err != nil {
			return err
		}
		defer a.close()

		entries, err := a.gateway.Pending()
		if err != nil {
			return fmt.Errorf("failed to read pending queue: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		a.logger.Info("Pending writes", zap.Int("count", len(entries)))
		for _, e := range entries {
			a.logger.Info("Entry",
				zap.String("id", e.ID),
				zap.String("entity", string(e.Entity)),
				zap.String("op", string(e.Op)),
				zap.String("entity_id", e.EntityID),
				zap.String("state", string(e.State)),
				zap.Int("attempts", e.Attempts),
				zap.String("last_error", e.LastError),
			)
		}
		return nil
	},
}

// discardCmd drops one entry from the queue.
var discardCmd = &cobra.Command{
	Use:   "discard [id]",
	Short: "Drop a pending write without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.gateway.Discard(args[0]); err != nil {
			return err
		}
		a.logger.Info("Pending write discarded", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	pendingCmd.Flags().Bool("json", false, "Output the full entries as JSON")
	pendingCmd.AddCommand(discardCmd)
	RootCmd.AddCommand(pendingCmd)
}
