// Package app defines the peg arbitrage service's port: a cooldown-
// gated, tick-driven PSM/DEX arbitrage checker.
package app

import (
	"context"

	"github.com/fd1az/arbitrage-bot/business/peg/domain"
)

// Service is the peg arbitrage port. CheckAndArbitrage runs one tick
// of the state machine described in the system's peg arbitrage
// component: skip under cooldown, read reserves, compute deviation,
// simulate, and execute at most one trade.
type Service interface {
	// CheckAndArbitrage runs a single tick. It returns the executed
	// opportunity, or nil if no trade was sent (cooldown active,
	// deviation below threshold, or the simulated trade wasn't
	// profitable).
	CheckAndArbitrage(ctx context.Context) (*domain.ArbOpportunity, error)
}
