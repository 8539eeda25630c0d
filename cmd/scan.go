package cmd

import (
	"fmt"
	"os"

	"github.com/karnyvex/dominator/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan trade hubs for cross-region price differences",
	Long: `Compares the volume weighted average price of every imported item across
the import regions for one historical window and lists the items whose cheapest
and most expensive region differ by at least the configured percentage.

Run import-statistics first; the scan only reads stored statistics.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("window", "w", string(types.Weekly), "Time window: weekly, monthly, quarterly, yearly")
	scanCmd.Flags().IntP("top", "n", 50, "Number of results to print")
}

func runScan(cmd *cobra.Command, args []string) error {
	rawWindow, _ := cmd.Flags().GetString("window")
	top, _ := cmd.Flags().GetInt("top")

	window, err := types.ParseTimeWindow(rawWindow)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	fmt.Printf("Scanning %d regions (%s window)...\n\n", len(s.cfg.ImportRegions), window)

	report, err := s.app.Scanner().Scan(s.ctx, window)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	printScanReport(os.Stdout, report, top)
	return nil
}
