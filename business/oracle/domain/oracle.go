// Package domain contains the core domain types for the oracle price
// service context.
package domain

import (
	"math/big"
	"time"
)

// PricePoint is a cached oracle reading for one collateral type,
// scaled to RAY (1e27).
type PricePoint struct {
	Ilk       string
	PriceRay  *big.Int
	FetchedAt time.Time
}

// Expired reports whether this point is older than ttl as of now.
func (p PricePoint) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.FetchedAt) >= ttl
}
