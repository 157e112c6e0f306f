// Package app defines the auction monitors' ports: collateral
// (Dutch-auction) bidding opportunities, and surplus/debt
// (English-auction) opportunities.
package app

import (
	"context"

	"github.com/fd1az/arbitrage-bot/business/auction/domain"
)

// CollateralMonitor subscribes to Bark events and tracks open Dutch
// auctions per ilk, emitting profitable-take opportunities on demand.
type CollateralMonitor interface {
	// Start begins subscribing to Bark events for the configured ilks.
	Start(ctx context.Context) error

	// Scan re-reads every tracked auction, drops closed ones, and
	// returns profitable opportunities ordered by descending profit
	// percent.
	Scan(ctx context.Context) ([]domain.BiddingOpportunity, error)

	// TrackedCount reports the number of open auctions currently
	// tracked, for health reporting.
	TrackedCount() int
}

// FlapMonitor subscribes to Flapper Kick events and tracks surplus
// auctions to expiry.
type FlapMonitor interface {
	Start(ctx context.Context) error
	Scan(ctx context.Context) ([]domain.FlapOpportunity, error)
	TrackedCount() int
}

// FlopMonitor subscribes to Flopper Kick events and tracks debt
// auctions to expiry.
type FlopMonitor interface {
	Start(ctx context.Context) error
	Scan(ctx context.Context) ([]domain.FlopOpportunity, error)
	TrackedCount() int
}

// StrategyFunc decides whether an English auction is worth bidding on;
// the evaluation policy itself is left to configuration or an external
// caller, per the system's Flap/Flop executors contract. The default
// implementation always returns false.
type StrategyFunc func(auction domain.EnglishAuction) bool

// AlwaysUnprofitable is the default StrategyFunc: it never approves a
// bid, leaving Flap/Flop participation to be wired in by whoever
// configures a real evaluation policy.
func AlwaysUnprofitable(domain.EnglishAuction) bool { return false }
