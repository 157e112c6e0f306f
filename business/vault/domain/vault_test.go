package domain_test

import (
	"math/big"
	"testing"

	"github.com/fd1az/arbitrage-bot/business/vault/domain"
)

func TestVault_Empty(t *testing.T) {
	v := domain.Vault{Ilk: "ETH-A", Urn: "0x1", Ink: big.NewInt(1), Art: big.NewInt(0)}
	if !v.Empty() {
		t.Error("expected vault with zero art to be empty")
	}

	v2 := domain.Vault{Ilk: "ETH-A", Urn: "0x1", Ink: big.NewInt(1), Art: big.NewInt(1)}
	if v2.Empty() {
		t.Error("expected vault with non-zero art to not be empty")
	}
}
