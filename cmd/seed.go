package cmd

import (
	"context"
	"fmt"
	"os"

	"party-ledger/feature/ledger/gateway"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFile string

// seedCmd registers players from a YAML fixture.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register players with opening balances from a YAML file",
	Long: `Registers every player listed in the file. Existing players are left untouched.

Example file:
  players:
    - id: A
      name: Ann
      balance: 300`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()

		players, err := gateway.ParseSeed(f)
		if err != nil {
			return err
		}

		ctx := context.Background()
		a, err := newApp(ctx, migrateFlag)
		if err != nil {
			return err
		}
		defer a.close()

		results, err := a.gateway.Seed(ctx, players)
		if err != nil {
			return err
		}
		created := 0
		for _, r := range results {
			if !r.AlreadyProcessed {
				created++
			}
		}
		a.logger.Info("Seed finished",
			zap.Int("players", len(players)),
			zap.Int("created", created),
			zap.Int("existing", len(players)-created),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "players.yaml", "YAML file listing the players")
	RootCmd.AddCommand(seedCmd)
}
