// Package domain contains the core domain types for the vault monitor
// context: urns, ilk and dog snapshots, and liquidation opportunities.
package domain

import "math/big"

// Key identifies a vault by its collateral type and owning address,
// matching the urn set's (ilk, urn) identity.
type Key struct {
	Ilk string
	Urn string // checksummed hex address, as common.Address.Hex
}

// Vault is a point-in-time snapshot of one urn's collateral and debt.
type Vault struct {
	Ilk string
	Urn string
	Ink *big.Int // collateral, WAD
	Art *big.Int // normalized debt, WAD
}

// Empty reports whether the vault carries no debt and is excluded from
// the unsafe scan.
func (v Vault) Empty() bool {
	return v.Art == nil || v.Art.Sign() == 0
}

// IlkSnapshot is a point-in-time read of one collateral type's Vat
// parameters, re-read every scan cycle and never cached across ticks.
type IlkSnapshot struct {
	Ilk  string
	Art  *big.Int // total normalized debt, WAD
	Rate *big.Int // accumulated rate, RAY
	Spot *big.Int // oracle price / liquidation ratio, RAY
	Line *big.Int // debt ceiling, RAD
	Dust *big.Int // minimum debt per vault, RAD
}

// DogGlobal is the Dog contract's global liquidation ceilings.
type DogGlobal struct {
	Hole *big.Int // RAD
	Dirt *big.Int // RAD
}

// DogIlkParams is the Dog contract's per-ilk liquidation parameters.
type DogIlkParams struct {
	Ilk  string
	Clip string   // Clipper contract address, hex
	Chop *big.Int // liquidation penalty multiplier, RAY
	Hole *big.Int // per-ilk liquidation debt ceiling, RAD
	Dirt *big.Int // per-ilk in-flight liquidation debt, RAD
}

// LiquidationOpportunity is emitted by the vault monitor's scan cycle
// for an urn that fails the is_safe test.
type LiquidationOpportunity struct {
	Vault        Vault
	Ilk          IlkSnapshot
	Dog          DogIlkParams
	RatioPercent *big.Int // collateralization ratio as an integer percent
}
