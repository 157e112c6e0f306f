// Package fixedpoint implements the WAD/RAY/RAD fixed-point arithmetic
// used throughout the CDP system's contracts: WAD (1e18) for token
// amounts and collateral, RAY (1e27) for rates and prices, RAD (1e45)
// for accumulated debt values. All operations are exact big.Int math;
// no float64 ever enters a calculation path. decimal.Decimal is used
// only at the ToDecimal boundary, for logging and display.
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision exponents, matching the on-chain contracts' conventions.
const (
	WADDecimals = 18
	RAYDecimals = 27
	RADDecimals = 45
)

var (
	// WAD is 10^18.
	WAD = new(big.Int).Exp(big.NewInt(10), big.NewInt(WADDecimals), nil)
	// RAY is 10^27.
	RAY = new(big.Int).Exp(big.NewInt(10), big.NewInt(RAYDecimals), nil)
	// RAD is 10^45.
	RAD = new(big.Int).Exp(big.NewInt(10), big.NewInt(RADDecimals), nil)

	rayOverWad = new(big.Int).Exp(big.NewInt(10), big.NewInt(RAYDecimals-WADDecimals), nil)
)

// Wmul multiplies two WAD-scaled values, returning a WAD-scaled result:
// wmul(x,y) = x*y/WAD.
func Wmul(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Div(r, WAD)
}

// Wdiv divides two WAD-scaled values, returning a WAD-scaled result:
// wdiv(x,y) = x*WAD/y.
func Wdiv(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, WAD)
	return r.Div(r, y)
}

// Rmul multiplies two RAY-scaled values, returning a RAY-scaled result:
// rmul(x,y) = x*y/RAY.
func Rmul(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Div(r, RAY)
}

// Rdiv divides two RAY-scaled values, returning a RAY-scaled result:
// rdiv(x,y) = x*RAY/y.
func Rdiv(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, RAY)
	return r.Div(r, y)
}

// WadToRay upscales a WAD value to RAY precision.
func WadToRay(x *big.Int) *big.Int {
	return new(big.Int).Mul(x, rayOverWad)
}

// RayToWad downscales a RAY value to WAD precision, truncating.
func RayToWad(x *big.Int) *big.Int {
	return new(big.Int).Div(x, rayOverWad)
}

// CollateralizationRatio computes ink·spot / (art·rate) as a RAY-scaled
// ratio, where ink/art are WAD and spot/rate are RAY. Returns nil if
// art or rate is zero (no debt drawn, ratio undefined/infinite).
func CollateralizationRatio(ink, spot, art, rate *big.Int) *big.Int {
	if art.Sign() == 0 || rate.Sign() == 0 {
		return nil
	}
	// numerator = ink (WAD) * spot (RAY) -> RAD (1e45)
	numerator := new(big.Int).Mul(ink, spot)
	// denominator = art (WAD) * rate (RAY) -> RAD (1e45)
	denominator := new(big.Int).Mul(art, rate)
	if denominator.Sign() == 0 {
		return nil
	}
	// ratio scaled to RAY: numerator/denominator is dimensionless;
	// multiply by RAY before dividing to keep RAY-scaled precision.
	scaled := new(big.Int).Mul(numerator, RAY)
	return scaled.Div(scaled, denominator)
}

// IsSafe reports the vault safety invariant ink·spot >= art·rate, both
// sides computed in RAD (10^45) to match the contracts' own check.
func IsSafe(ink, spot, art, rate *big.Int) bool {
	lhs := new(big.Int).Mul(ink, spot)
	rhs := new(big.Int).Mul(art, rate)
	return lhs.Cmp(rhs) >= 0
}

// AuctionPrice computes the linear-decay Clipper auction price at
// elapsed seconds since start, given the starting price top (RAY) and
// total decay duration tau (seconds). Price floors at zero once
// elapsed >= tau. This reproduces the on-chain LinearDecrease
// calculator; prefer the chain's own Clipper.getStatus when available
// since a deployment may use a different (e.g. StairstepExponential)
// calculator.
func AuctionPrice(top *big.Int, elapsedSeconds, tau int64) *big.Int {
	if elapsedSeconds >= tau {
		return big.NewInt(0)
	}
	if elapsedSeconds <= 0 {
		return new(big.Int).Set(top)
	}
	// price = top * (tau - elapsed) / tau
	remaining := big.NewInt(tau - elapsedSeconds)
	r := new(big.Int).Mul(top, remaining)
	return r.Div(r, big.NewInt(tau))
}

// ProfitPercentage returns (revenue-cost)/cost as a WAD-scaled value,
// where revenue and cost are both in the same unit (e.g. RAD
// stablecoin value, or WAD token amount). Returns nil if cost is zero.
func ProfitPercentage(revenue, cost *big.Int) *big.Int {
	if cost.Sign() == 0 {
		return nil
	}
	diff := new(big.Int).Sub(revenue, cost)
	scaled := new(big.Int).Mul(diff, WAD)
	return scaled.Div(scaled, cost)
}

// ProfitPercent computes (sell-buy)*10000/buy/100 as a percent with 2
// decimal digits of precision (20.00 means 20%), matching the
// Clipper/Flap/Flop opportunity comparison against a configured
// minimum percent threshold. Returns false if buy is zero.
func ProfitPercent(buy, sell *big.Int) (decimal.Decimal, bool) {
	if buy.Sign() == 0 {
		return decimal.Zero, false
	}
	diff := new(big.Int).Sub(sell, buy)
	bp := new(big.Int).Mul(diff, big.NewInt(10_000))
	bp.Div(bp, buy)
	return decimal.NewFromBigInt(bp, -2), true
}

// ToDecimal converts a fixed-point value at the given decimal exponent
// to a decimal.Decimal for display/logging. This is a boundary
// function only; never feed its result back into arithmetic.
func ToDecimal(x *big.Int, decimals int32) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -decimals)
}
