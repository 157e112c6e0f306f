// Package app defines the vat balance manager's port: reading and
// moving collateral between a keeper's wallet and its Vat balance.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceManager is the Vat balance manager port.
type BalanceManager interface {
	// VatBalance returns the stablecoin balance the Vat holds for usr,
	// in RAD (1e45).
	VatBalance(ctx context.Context, usr common.Address) (*big.Int, error)

	// WalletBalance returns gem's ERC-20 balance held by usr, in WAD.
	WalletBalance(ctx context.Context, gem, usr common.Address) (*big.Int, error)

	// MoveToVat approves the join adapter for wad and then
	// calls join, moving wad units of gem from usr's wallet into the
	// Vat's gem balance for ilk.
	MoveToVat(ctx context.Context, join, gem common.Address, usr common.Address, wad *big.Int) error

	// MoveToWallet calls the join adapter's exit, moving wad units of
	// the ilk's gem from the Vat back to usr's wallet.
	MoveToWallet(ctx context.Context, join common.Address, usr common.Address, wad *big.Int) error

	// EnsureVatBalance tops up usr's internal Vat balance (as read by
	// VatBalance, compared in RAD) via MoveToVat if it is below the
	// requested wad, returning the WAD shortfall actually
	// moved (zero if no top-up was needed).
	EnsureVatBalance(ctx context.Context, join, gem common.Address, usr common.Address, wad *big.Int) (*big.Int, error)
}
