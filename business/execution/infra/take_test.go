package infra_test

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	auctionDomain "github.com/fd1az/arbitrage-bot/business/auction/domain"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	"github.com/fd1az/arbitrage-bot/business/execution/infra"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

func TestTakeExecutor_TakesFullAmountWhenBalanceSufficient(t *testing.T) {
	stub := newExecutionStub()
	clipperAddress := common.HexToAddress("0xC11000000000000000000000000000000000C1")

	balances := &stubBalanceManager{vatBalance: new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000))}
	exec := infra.NewTakeExecutor(stub, balances, map[string]common.Address{"ETH-A": clipperAddress}, keeperAddress, func() bool { return false }, testLogger())

	opp := auctionDomain.BiddingOpportunity{
		Auction:      auctionDomain.CollateralAuction{Ilk: "ETH-A", ID: big.NewInt(1)},
		CurrentPrice: big.NewInt(1),
		MarketPrice:  big.NewInt(2),
		MaxTake:      big.NewInt(100),
	}
	result, err := exec.Execute(context.Background(), opp)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Outcome != execDomain.OutcomeSent {
		t.Fatalf("Outcome = %v, want OutcomeSent", result.Outcome)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(stub.sent))
	}
}

func TestTakeExecutor_RefusesOnUnconfiguredIlk(t *testing.T) {
	stub := newExecutionStub()
	balances := &stubBalanceManager{vatBalance: big.NewInt(1_000_000)}
	exec := infra.NewTakeExecutor(stub, balances, map[string]common.Address{}, keeperAddress, func() bool { return false }, testLogger())

	opp := auctionDomain.BiddingOpportunity{
		Auction:      auctionDomain.CollateralAuction{Ilk: "WBTC-A", ID: big.NewInt(1)},
		CurrentPrice: big.NewInt(1),
		MaxTake:      big.NewInt(100),
	}
	result, err := exec.Execute(context.Background(), opp)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Outcome != execDomain.OutcomeRefused {
		t.Fatalf("Outcome = %v, want OutcomeRefused", result.Outcome)
	}
	if len(stub.sent) != 0 {
		t.Fatalf("sent %d transactions, want 0", len(stub.sent))
	}
}

// stubBalanceManager implements vatApp.BalanceManager with fixed
// balances, for executors that read Vat/wallet balances without
// exercising the real vat.Manager implementation.
type stubBalanceManager struct {
	vatBalance    *big.Int
	walletBalance *big.Int
}

func (b *stubBalanceManager) VatBalance(ctx context.Context, usr common.Address) (*big.Int, error) {
	return b.vatBalance, nil
}
func (b *stubBalanceManager) WalletBalance(ctx context.Context, gem, usr common.Address) (*big.Int, error) {
	return b.walletBalance, nil
}
func (b *stubBalanceManager) MoveToVat(ctx context.Context, join, gem common.Address, usr common.Address, wad *big.Int) error {
	return nil
}
func (b *stubBalanceManager) MoveToWallet(ctx context.Context, join common.Address, usr common.Address, wad *big.Int) error {
	return nil
}
func (b *stubBalanceManager) EnsureVatBalance(ctx context.Context, join, gem common.Address, usr common.Address, wad *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}
