// Package app defines the execution context's ports: one executor per
// opportunity kind, each re-checking contract capacity and balance
// before sending a transaction.
package app

import (
	"context"

	auctionDomain "github.com/fd1az/arbitrage-bot/business/auction/domain"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	vaultDomain "github.com/fd1az/arbitrage-bot/business/vault/domain"
)

// LiquidationExecutor consumes LiquidationOpportunity values from the
// vault monitor's scan and calls Dog.bark.
type LiquidationExecutor interface {
	Execute(ctx context.Context, opp vaultDomain.LiquidationOpportunity) (execDomain.Result, error)
}

// TakeExecutor consumes BiddingOpportunity values from the
// collateral-auction monitor's scan and calls Clipper.take.
type TakeExecutor interface {
	Execute(ctx context.Context, opp auctionDomain.BiddingOpportunity) (execDomain.Result, error)
}

// EnglishAuctionExecutor consumes Flap/Flop opportunities and calls
// Flapper.tend or Flopper.dent, respectively. The Flapper/Flopper
// addresses are fixed at construction.
type EnglishAuctionExecutor interface {
	ExecuteFlap(ctx context.Context, opp auctionDomain.FlapOpportunity) (execDomain.Result, error)
	ExecuteFlop(ctx context.Context, opp auctionDomain.FlopOpportunity) (execDomain.Result, error)
}
