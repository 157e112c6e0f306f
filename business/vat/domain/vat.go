// Package domain holds the vat balance manager's value types.
package domain

import "math/big"

// Balances is a snapshot of a user's collateral position split across
// their wallet (ERC-20 balance, WAD) and their Vat gem balance (WAD).
type Balances struct {
	WalletWad *big.Int
	VatWad    *big.Int
}
