// Package domain holds the peg arbitrage context's plain value types:
// PSM parameters, a DEX pair's reserves, and the opportunities derived
// from them.
package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PSMState is a snapshot of the peg stability module's parameters.
type PSMState struct {
	Gem         string   // gem ERC-20 address
	KUSD        string   // stablecoin ERC-20 address
	Pocket      string   // gem reserve holder for redemptions
	Tin         *big.Int // mint fee, WAD
	Tout        *big.Int // redeem fee, WAD
	GemDecimals uint8
}

// Conversion returns 10^(18-GemDecimals), the PSM's own fixed-point
// normalization factor.
func (p PSMState) Conversion() *big.Int {
	exp := int64(18 - p.GemDecimals)
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}

// DEXPair is a snapshot of an AMM pair's reserves, normalized so
// GemReserve/KUSDReserve correspond to the keeper's gem/kusd ordering
// regardless of the pair's own token0/token1 order.
type DEXPair struct {
	Token0       string
	Token1       string
	GemReserve   *big.Int
	KUSDReserve  *big.Int
	GemDecimals  uint8
	LastUpdateTs int64
}

// Price computes the spot price of KUSD in gem, normalized to 18
// decimals: (gem_reserve * 10^(18-gem_decimals)) / kusd_reserve.
func (d DEXPair) Price() decimal.Decimal {
	if d.KUSDReserve == nil || d.KUSDReserve.Sign() == 0 {
		return decimal.Zero
	}
	conversion := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-d.GemDecimals)), nil)
	numerator := new(big.Int).Mul(d.GemReserve, conversion)
	return decimal.NewFromBigInt(numerator, 0).Div(decimal.NewFromBigInt(d.KUSDReserve, 0))
}

// ArbDirection is which side of the peg band was crossed.
type ArbDirection int

const (
	DirectionNone ArbDirection = iota
	DirectionHigh              // price above upper limit: mint + sell
	DirectionLow               // price below lower limit: buy + redeem
)

// ArbOpportunity is a simulated, profitable peg trade ready for
// execution.
type ArbOpportunity struct {
	Direction       ArbDirection
	Price           decimal.Decimal
	TradeAmount     *big.Int // gem units spent at the start of the round trip, either direction
	ExpectedOut     *big.Int // gem units received at the end of the round trip
	MinOut          *big.Int // slippage-adjusted floor for the DEX leg only
	ExpectedProfit  *big.Int // gem units, ExpectedOut - TradeAmount
	ExpectedPercent decimal.Decimal
}
