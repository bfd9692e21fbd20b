// Package cli implements the netinventory command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"netinventory/internal/version"
)

var (
	cfgFile string
	v       = viper.New()

	rootCmd = &cobra.Command{
		Use:   "netinventory",
		Short: "Network device inventory service",
		Long: `Network device inventory: stores discovered devices and imports
spreadsheet device lists.

  serve    run the HTTP API
  import   import an .xlsx device list from the command line
  devices  list, search and show stored devices`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or /etc/netinventory/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("db-driver", "sqlite3", "database driver (sqlite3, pgx)")
	rootCmd.PersistentFlags().String("db-dsn", "database.db", "sqlite file path or postgres connection string")

	mustBind("log.level", "log-level")
	mustBind("log.format", "log-format")
	mustBind("database.driver", "db-driver")
	mustBind("database.dsn", "db-dsn")
}

func mustBind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}
