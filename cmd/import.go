package cmd

import (
	"fmt"
	"os"

	"github.com/karnyvex/dominator/internal/history"
	"github.com/karnyvex/dominator/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var importStatisticsCmd = &cobra.Command{
	Use:   "import-statistics",
	Short: "Import market history from Mokaam",
	Long: `Downloads the bulk market statistics of the import regions from Mokaam and
replaces the stored rows of each region. A failed region does not stop the others.`,
	RunE: runImportStatistics,
}

//nolint:gochecknoglobals // Cobra boilerplate
var importNamesCmd = &cobra.Command{
	Use:   "import-names",
	Short: "Import item names from Mokaam",
	RunE:  runImportNames,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(importStatisticsCmd)
	rootCmd.AddCommand(importNamesCmd)
	importStatisticsCmd.Flags().Int32P("region", "r", 0, "Region ID to import (default: every import region)")
}

func runImportStatistics(cmd *cobra.Command, args []string) error {
	region, _ := cmd.Flags().GetInt32("region")

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	var (
		results   []history.ImportResult
		importErr error
	)

	if region != 0 {
		var result history.ImportResult
		result, importErr = s.app.Importer().ImportRegion(s.ctx, types.RegionID(region))
		results = []history.ImportResult{result}
	} else {
		results, importErr = s.app.Importer().ImportAll(s.ctx)
	}

	printImportResults(os.Stdout, results)

	if importErr != nil {
		return fmt.Errorf("import statistics: %w", importErr)
	}
	return nil
}

func runImportNames(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	count, err := s.app.Importer().ImportNames(s.ctx)
	if err != nil {
		return fmt.Errorf("import names: %w", err)
	}

	fmt.Printf("Imported %d item names\n", count)
	return nil
}
