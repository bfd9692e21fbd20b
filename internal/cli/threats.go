package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"netinventory/internal/db"
	"netinventory/internal/models"
)

var threatsCmd = &cobra.Command{
	Use:   "threats",
	Short: "Manage the threat intelligence list",
	Long: `Manage the threat intelligence list. Devices created through the API
with an IP address on this list are stored with status Blocked.`,
}

var threatsAddCmd = &cobra.Command{
	Use:   "add <ip> <threat-type>",
	Short: "Add an IP address to the threat list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{logToStderr: true})
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.store.AddThreat(cmd.Context(), models.Threat{
			IPAddress:  args[0],
			ThreatType: args[1],
			CreatedAt:  time.Now().UTC(),
		})
		if errors.Is(err, db.ErrDuplicateIP) {
			return fmt.Errorf("%s is already on the threat list", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s added as %s\n", args[0], args[1])
		return nil
	},
}

var threatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known threat IP addresses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), appOptions{logToStderr: true})
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.store.ListThreats(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "IP ADDRESS\tTYPE\tADDED")
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.IPAddress, t.ThreatType, t.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

func init() {
	threatsCmd.AddCommand(threatsAddCmd, threatsListCmd)
	rootCmd.AddCommand(threatsCmd)
}
