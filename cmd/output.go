package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
	"github.com/karnyvex/dominator/internal/history"
	"github.com/karnyvex/dominator/internal/storage"
	"github.com/karnyvex/dominator/pkg/types"
)

func printOpportunities(out io.Writer, opps []*domination.Opportunity) {
	if len(opps) == 0 {
		fmt.Fprintln(out, "No opportunities found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTYPE\tITEM\tORDERS\tITEMS\tINVESTMENT\tRELIST\tPROFIT\tROI")
	fmt.Fprintln(w, "-\t----\t----\t------\t-----\t----------\t------\t------\t---")

	for i, opp := range opps {
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\t%s\t%s\t%.2f%%\n",
			i+1,
			opp.TypeID,
			opp.ItemName,
			opp.OrdersCleared,
			humanize.Comma(opp.ItemsBought),
			storage.FormatISK(opp.TotalInvestment),
			storage.FormatISK(opp.TargetSellPrice),
			storage.FormatISK(opp.TotalProfit),
			opp.ROIPercent,
		)
	}

	_ = w.Flush()
}

func printScanReport(out io.Writer, report *arbitrage.ScanReport, top int) {
	fmt.Fprintf(out, "Scan %s: %s candidates, %d results in %s\n",
		report.ID,
		humanize.Comma(int64(report.Candidates)),
		len(report.Results),
		report.Duration.Round(time.Millisecond))

	if report.Partial() {
		fmt.Fprintf(out, "WARNING: %d of %d batches failed, results are incomplete\n",
			report.FailedBatches, report.TotalBatches)
	}
	fmt.Fprintln(out)

	if len(report.Results) == 0 {
		fmt.Fprintln(out, "No price differences above the threshold")
		return
	}

	results := report.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tITEM\tBUY IN\tPRICE\tSELL IN\tPRICE\tDIFF")
	fmt.Fprintln(w, "----\t----\t------\t-----\t-------\t-----\t----")

	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.2f%%\n",
			r.TypeID,
			r.ItemName,
			r.LowRegionName,
			storage.FormatISK(r.LowPrice),
			r.HighRegionName,
			storage.FormatISK(r.HighPrice),
			r.PriceDifferencePercent,
		)
	}

	_ = w.Flush()

	if len(results) < len(report.Results) {
		fmt.Fprintf(out, "\n... and %d more\n", len(report.Results)-len(results))
	}
}

func printImportResults(out io.Writer, results []history.ImportResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tRECORDS\tSTORED\tNO DATA\tINVALID\tTOOK\tSTATUS")
	fmt.Fprintln(w, "------\t-------\t------\t-------\t-------\t----\t------")

	for _, r := range results {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.RegionName,
			r.Summary.Records,
			r.Summary.Parsed,
			r.Summary.SkippedNoData,
			r.Summary.SkippedInvalid,
			r.Duration.Round(time.Millisecond),
			status,
		)
	}

	_ = w.Flush()
}

func printItemNames(out io.Writer, found []types.ItemName) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME")
	fmt.Fprintln(w, "----\t----")

	for _, item := range found {
		fmt.Fprintf(w, "%d\t%s\n", item.TypeID, item.Name)
	}

	_ = w.Flush()
}
