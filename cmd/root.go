package cmd

import (
	"fmt"
	"os"

	"party-ledger/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateFlag bool

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "party-ledger",
	Short: "Party Ledger Service",
	Long: `Party Ledger keeps game, transaction and player balances consistent
between a local cache and a remote database, and keeps accepting writes
while the remote database is unreachable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps reads better on a terminal
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&migrateFlag, "migrate", false, "Create or update the remote tables before running")
}
