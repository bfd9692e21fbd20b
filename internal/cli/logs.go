package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"netinventory/internal/db"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the most recent activity log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), appOptions{logToStderr: true})
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.store.ListActivity(cmd.Context(), time.Time{}, logsLimit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				strings.ToUpper(e.Level),
				e.Message,
			)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", db.DefaultActivityLimit, "number of entries to show")
	rootCmd.AddCommand(logsCmd)
}
