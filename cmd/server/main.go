/*
main.go - Application entry point

PURPOSE:
  Command-line interface for the payroll engine. Serves the HTTP API and
  offers a few offline commands against the same database and policy.

COMMANDS:
  serve     Start the HTTP server
  runs      List finalized payroll runs with totals
  convert   Convert an amount between two currencies

CONFIGURATION:
  Settings come from the environment (and an optional .env file), see
  config/config.go. Flags override the environment:

  --db          SQLite database path (":memory:" for a throwaway store)
  --policy      Policy JSON file (default: built-in policy)
  --log-level   trace, debug, info, warn, error
  --port        HTTP server port (serve only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits up to
  30s for active requests, then closes the database.

EXAMPLES:
  ./server serve --port 3000
  ./server runs --db ./data/payroll.db
  ./server convert 400 USD MMK

SEE ALSO:
  - api/server.go: Router configuration
  - payroll/coordinator.go: Payroll state
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/logger"
)

var version = "1.0.0"

// cfg is loaded once in the root command's pre-run.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "server",
	Short:   "Payroll computation and historical ledger",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		if err := logger.Setup(loaded.Log); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides PAYROLL_DB_PATH)")
	rootCmd.PersistentFlags().String("policy", "", "Policy JSON file (overrides PAYROLL_POLICY_FILE)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
}

// applyFlags copies explicitly set flags over the environment settings.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.App.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("policy") {
		c.App.PolicyFile, _ = flags.GetString("policy")
	}
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		c.App.Port, _ = flags.GetInt("port")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
