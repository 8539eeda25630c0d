package storage

import (
	"context"
	"errors"

	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ResultSink receives finished analysis and scan results.
type ResultSink interface {
	// StoreOpportunities stores the ranked result of one domination run.
	StoreOpportunities(ctx context.Context, opps []*domination.Opportunity) error

	// StoreArbitrage stores one finished arbitrage scan.
	StoreArbitrage(ctx context.Context, report *arbitrage.ScanReport) error

	// Close closes the storage connection.
	Close() error
}

// NopSink discards every result. It backs RESULTS_MODE=none.
type NopSink struct{}

func (NopSink) StoreOpportunities(context.Context, []*domination.Opportunity) error { return nil }

func (NopSink) StoreArbitrage(context.Context, *arbitrage.ScanReport) error { return nil }

func (NopSink) Close() error { return nil }
