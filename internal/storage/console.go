package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
	"go.uber.org/zap"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements ResultSink by pretty-printing to the console.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    os.Stdout,
		logger: logger,
	}
}

// StoreOpportunities prints the ranked opportunities of one run.
func (c *ConsoleStorage) StoreOpportunities(ctx context.Context, opps []*domination.Opportunity) error {
	fmt.Fprintln(c.out, "\n"+separator)
	fmt.Fprintf(c.out, "🎯 DOMINATION OPPORTUNITIES (%d)\n", len(opps))
	fmt.Fprintln(c.out, separator)

	for i, opp := range opps {
		fmt.Fprintf(c.out, "%2d. %s [%d]\n", i+1, opp.ItemName, opp.TypeID)
		fmt.Fprintf(c.out, "    Buy out:  %d orders, %s items for %s ISK (up to %s)\n",
			opp.OrdersCleared,
			humanize.Comma(opp.ItemsBought),
			FormatISK(opp.TotalInvestment),
			FormatISK(opp.HighestBuyPriceCleared))
		fmt.Fprintf(c.out, "    Relist:   %s ISK\n", FormatISK(opp.TargetSellPrice))
		fmt.Fprintf(c.out, "    Profit:   %s ISK (%.2f%% ROI)\n", FormatISK(opp.TotalProfit), opp.ROIPercent)
	}

	fmt.Fprintln(c.out, separator)
	return nil
}

// StoreArbitrage prints one scan report.
func (c *ConsoleStorage) StoreArbitrage(ctx context.Context, report *arbitrage.ScanReport) error {
	fmt.Fprintln(c.out, "\n"+separator)
	fmt.Fprintf(c.out, "📊 ARBITRAGE SCAN %s (%s window)\n", shortID(report.ID), report.Window)
	fmt.Fprintln(c.out, separator)
	fmt.Fprintf(c.out, "Candidates: %s   Batches: %d   Failed: %d   Took: %s\n",
		humanize.Comma(int64(report.Candidates)),
		report.TotalBatches,
		report.FailedBatches,
		report.Duration.Round(time.Millisecond))
	if report.Partial() {
		fmt.Fprintf(c.out, "⚠️  PARTIAL RESULT: %d of %d batches failed\n", report.FailedBatches, report.TotalBatches)
	}
	fmt.Fprintln(c.out, separator)

	for i, r := range report.Results {
		fmt.Fprintf(c.out, "%2d. %s [%d]  +%.2f%%\n", i+1, r.ItemName, r.TypeID, r.PriceDifferencePercent)
		fmt.Fprintf(c.out, "    Buy:  %-26s %s ISK (market %s ISK)\n", r.LowRegionName, FormatISK(r.LowPrice), FormatISK(r.LowMarketSize))
		fmt.Fprintf(c.out, "    Sell: %-26s %s ISK (market %s ISK)\n", r.HighRegionName, FormatISK(r.HighPrice), FormatISK(r.HighMarketSize))
	}

	fmt.Fprintln(c.out, separator)
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

// FormatISK renders an ISK amount with thousands separators and two decimals.
func FormatISK(amount float64) string {
	return humanize.FormatFloat("#,###.##", amount)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
