package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"netinventory/internal/db"
	"netinventory/internal/events"
	"netinventory/internal/generator"
)

var (
	seedCount int
	seedValue uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert fake devices for demos and load tests",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 25, "number of devices to create")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed (0 picks one)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if seedCount <= 0 {
		return errors.New("--count must be positive")
	}

	a, err := newApp(cmd.Context(), appOptions{events: true, logToStderr: true})
	if err != nil {
		return err
	}
	defer a.Close()

	gen := generator.New(seedValue)
	created, skipped := 0, 0
	for _, d := range gen.Devices(seedCount) {
		_, err := a.devices.Create(cmd.Context(), d, events.SourceSeed)
		switch {
		case err == nil:
			created++
		case errors.Is(err, db.ErrDuplicateIP):
			skipped++
		default:
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d devices created, %d skipped as duplicate.\n", created, skipped)
	return nil
}
