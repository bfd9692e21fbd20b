package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import an .xlsx device list",
	Long: `Import devices from the first sheet of an .xlsx workbook.

The sheet needs the columns name, ip_address, location and status;
latitude and longitude are optional. Rows whose IP address is already
stored are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	a, err := newApp(cmd.Context(), appOptions{events: true, logToStderr: true})
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := a.importer.Import(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		if res.Imported > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d records were stored before the failure.\n", res.Imported)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Message())
	for _, ip := range res.SkippedIPs {
		fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s\n", ip)
	}
	return nil
}
