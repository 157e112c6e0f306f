// Package app defines the price service's port: a per-collateral,
// time-to-live-cached oracle reader returning RAY-scaled prices.
package app

import (
	"context"
	"math/big"
)

// PriceService is the oracle reader port.
type PriceService interface {
	// GetPrice returns ilk's cached or freshly-fetched price in RAY.
	// It fails with apperror.CodeInvalidOracle if the oracle reports
	// its reading invalid.
	GetPrice(ctx context.Context, ilk string) (*big.Int, error)

	// ClearCache drops every cached entry, forcing the next GetPrice
	// call for any ilk to re-fetch.
	ClearCache()
}
