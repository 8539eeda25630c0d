package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var searchItemsCmd = &cobra.Command{
	Use:   "search-items <term>",
	Short: "Search imported item names",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearchItems,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(searchItemsCmd)
	searchItemsCmd.Flags().IntP("limit", "l", 25, "Maximum number of matches")
}

func runSearchItems(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	term := strings.Join(args, " ")

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	found, err := s.app.Names().Search(s.ctx, term, limit)
	if err != nil {
		return fmt.Errorf("search items: %w", err)
	}

	if len(found) == 0 {
		fmt.Printf("No items match %q. Run import-names first if the table is empty.\n", term)
		return nil
	}

	printItemNames(os.Stdout, found)
	return nil
}
