package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"netinventory/internal/models"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List, search and show stored devices",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), appOptions{logToStderr: true})
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.store.ListDevices(cmd.Context())
		if err != nil {
			return err
		}
		return printDevices(cmd.OutOrStdout(), list)
	},
}

var devicesSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search name, IP address, location and status",
	Long: `Search devices case-insensitively. A device matches when the keyword
appears in its name, IP address, location or status.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), appOptions{logToStderr: true})
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.devices.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printDevices(cmd.OutOrStdout(), list)
	},
}

var devicesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid device id %q", args[0])
		}

		a, err := newApp(cmd.Context(), appOptions{logToStderr: true})
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.devices.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:          %d\n", d.ID)
		fmt.Fprintf(out, "Name:        %s\n", d.Name)
		fmt.Fprintf(out, "IP address:  %s\n", d.IPAddress)
		fmt.Fprintf(out, "Location:    %s\n", models.StringOr(d.Location, "-"))
		fmt.Fprintf(out, "Status:      %s\n", models.StringOr(d.Status, "-"))
		fmt.Fprintf(out, "Detected at: %s\n", d.DetectedAt)
		fmt.Fprintf(out, "Coordinates: %s\n", coordinates(d))
		return nil
	},
}

func init() {
	devicesCmd.AddCommand(devicesListCmd, devicesSearchCmd, devicesShowCmd)
	rootCmd.AddCommand(devicesCmd)
}

func printDevices(w io.Writer, list []models.Device) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tIP ADDRESS\tLOCATION\tSTATUS\tDETECTED AT")
	for _, d := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.IPAddress,
			models.StringOr(d.Location, "-"),
			models.StringOr(d.Status, "-"),
			d.DetectedAt,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d devices\n", len(list))
	return nil
}

func coordinates(d models.Device) string {
	if d.Latitude == nil || d.Longitude == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f, %.6f", *d.Latitude, *d.Longitude)
}
