// Package app defines the vault monitor's port: Frob log replay and
// subscription to build the known urn set, plus an on-demand unsafe
// vault scan.
package app

import (
	"context"

	"github.com/fd1az/arbitrage-bot/business/vault/domain"
)

// Monitor is the vault monitor port.
type Monitor interface {
	// Start hydrates the known urn set from historical Frob logs and
	// begins subscribing to new ones. It returns once hydration
	// completes; the subscription runs in the background until ctx is
	// cancelled.
	Start(ctx context.Context) error

	// Scan reads every known urn of each enabled ilk and returns the
	// opportunities for urns that fail the safety test.
	Scan(ctx context.Context) ([]domain.LiquidationOpportunity, error)

	// KnownVaultCount reports the size of the known urn set, for health
	// reporting.
	KnownVaultCount() int

	// ReadDogGlobal reads the Dog contract's global Hole/Dirt ceilings,
	// used by the liquidation executor's pre-flight check.
	ReadDogGlobal(ctx context.Context) (domain.DogGlobal, error)
}
