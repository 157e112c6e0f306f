package infra_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	auctionDomain "github.com/fd1az/arbitrage-bot/business/auction/domain"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	"github.com/fd1az/arbitrage-bot/business/execution/infra"
)

var (
	flapperAddress  = common.HexToAddress("0xF1a9000000000000000000000000000000F1a9")
	flopperAddress  = common.HexToAddress("0xF10b000000000000000000000000000000F10b")
	surplusGemToken = common.HexToAddress("0x5ea1000000000000000000000000000000000a")
)

func newEnglishAuctionExecutor(stub *executionStub, balances *stubBalanceManager) *infra.EnglishAuctionExecutor {
	return infra.NewEnglishAuctionExecutor(stub, balances, flapperAddress, flopperAddress, surplusGemToken, keeperAddress, func() bool { return false }, testLogger())
}

func TestEnglishAuctionExecutor_FlapTendsWhenProfitableAndFunded(t *testing.T) {
	stub := newExecutionStub()
	balances := &stubBalanceManager{walletBalance: big.NewInt(1_000)}
	exec := newEnglishAuctionExecutor(stub, balances)

	opp := auctionDomain.FlapOpportunity{
		Auction:    auctionDomain.EnglishAuction{ID: big.NewInt(7), Lot: big.NewInt(500)},
		MinBid:     big.NewInt(100),
		Profitable: true,
	}
	result, err := exec.ExecuteFlap(context.Background(), opp)
	if err != nil {
		t.Fatalf("ExecuteFlap returned error: %v", err)
	}
	if result.Outcome != execDomain.OutcomeSent {
		t.Fatalf("Outcome = %v, want OutcomeSent", result.Outcome)
	}
	// approve + tend
	if len(stub.sent) != 2 {
		t.Fatalf("sent %d transactions, want 2 (approve, tend)", len(stub.sent))
	}
}

func TestEnglishAuctionExecutor_FlapRefusesWhenNotProfitable(t *testing.T) {
	stub := newExecutionStub()
	balances := &stubBalanceManager{walletBalance: big.NewInt(1_000)}
	exec := newEnglishAuctionExecutor(stub, balances)

	opp := auctionDomain.FlapOpportunity{
		Auction:    auctionDomain.EnglishAuction{ID: big.NewInt(7), Lot: big.NewInt(500)},
		MinBid:     big.NewInt(100),
		Profitable: false,
	}
	result, err := exec.ExecuteFlap(context.Background(), opp)
	if err != nil {
		t.Fatalf("ExecuteFlap returned error: %v", err)
	}
	if result.Outcome != execDomain.OutcomeRefused {
		t.Fatalf("Outcome = %v, want OutcomeRefused", result.Outcome)
	}
	if len(stub.sent) != 0 {
		t.Fatalf("sent %d transactions, want 0", len(stub.sent))
	}
}

// TestEnglishAuctionExecutor_FlopRefusesOnInsufficientCapacity covers
// the Flop capacity refusal scenario: a 500 RAD bid against a 400 RAD
// Vat balance must refuse without sending a dent transaction.
func TestEnglishAuctionExecutor_FlopRefusesOnInsufficientCapacity(t *testing.T) {
	stub := newExecutionStub()
	rad := func(n int64) *big.Int {
		v := big.NewInt(n)
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(45), nil)
		return v.Mul(v, scale)
	}
	balances := &stubBalanceManager{vatBalance: rad(400)}
	exec := newEnglishAuctionExecutor(stub, balances)

	opp := auctionDomain.FlopOpportunity{
		Auction:    auctionDomain.EnglishAuction{ID: big.NewInt(9), Bid: rad(500)},
		MaxLot:     big.NewInt(1_000),
		Profitable: true,
	}
	result, err := exec.ExecuteFlop(context.Background(), opp)
	if err != nil {
		t.Fatalf("ExecuteFlop returned error: %v", err)
	}
	if result.Outcome != execDomain.OutcomeRefused {
		t.Fatalf("Outcome = %v, want OutcomeRefused", result.Outcome)
	}
	if len(stub.sent) != 0 {
		t.Fatalf("sent %d transactions, want 0 (no dent on insufficient funds)", len(stub.sent))
	}
}

func TestEnglishAuctionExecutor_FlopDentsWhenFunded(t *testing.T) {
	stub := newExecutionStub()
	balances := &stubBalanceManager{vatBalance: big.NewInt(10_000)}
	exec := newEnglishAuctionExecutor(stub, balances)

	opp := auctionDomain.FlopOpportunity{
		Auction:    auctionDomain.EnglishAuction{ID: big.NewInt(9), Bid: big.NewInt(5_000)},
		MaxLot:     big.NewInt(1_000),
		Profitable: true,
	}
	result, err := exec.ExecuteFlop(context.Background(), opp)
	if err != nil {
		t.Fatalf("ExecuteFlop returned error: %v", err)
	}
	if result.Outcome != execDomain.OutcomeSent {
		t.Fatalf("Outcome = %v, want OutcomeSent", result.Outcome)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(stub.sent))
	}
}
