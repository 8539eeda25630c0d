package cmd

import (
	"fmt"
	"os"

	"github.com/karnyvex/dominator/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a domination analysis",
	Long: `Fetches the live sell orders of a region from ESI and finds items whose
cheapest orders at the region's trade hub can be bought out and relisted at the
target ROI after tax. Without --region every configured region is analysed.`,
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Int32P("region", "r", 0, "Region ID to analyse (default: every configured region)")
	analyzeCmd.Flags().IntP("top", "n", 25, "Number of opportunities to print per region")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	region, _ := cmd.Flags().GetInt32("region")
	top, _ := cmd.Flags().GetInt("top")

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	regions := s.cfg.Regions
	if region != 0 {
		regions = []types.RegionID{types.RegionID(region)}
	}

	for _, regionID := range regions {
		fmt.Printf("Analysing %s...\n\n", types.RegionName(regionID))

		opps, err := s.app.Analyzer().AnalyzeRegion(s.ctx, regionID)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", types.RegionName(regionID), err)
		}

		if len(opps) > top {
			fmt.Printf("Showing %d of %d opportunities\n", top, len(opps))
			opps = opps[:top]
		}

		printOpportunities(os.Stdout, opps)
		fmt.Println()
	}

	return nil
}
