package infra_test

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	auctionDomain "github.com/fd1az/arbitrage-bot/business/auction/domain"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	"github.com/fd1az/arbitrage-bot/business/keeper/infra"
	pegDomain "github.com/fd1az/arbitrage-bot/business/peg/domain"
	vaultDomain "github.com/fd1az/arbitrage-bot/business/vault/domain"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

type fakeVaultMonitor struct {
	mu         sync.Mutex
	scanCalls  int
	opps       []vaultDomain.LiquidationOpportunity
	knownCount int
}

func (f *fakeVaultMonitor) Start(ctx context.Context) error { return nil }
func (f *fakeVaultMonitor) Scan(ctx context.Context) ([]vaultDomain.LiquidationOpportunity, error) {
	f.mu.Lock()
	f.scanCalls++
	f.mu.Unlock()
	return f.opps, nil
}
func (f *fakeVaultMonitor) KnownVaultCount() int { return f.knownCount }
func (f *fakeVaultMonitor) ReadDogGlobal(ctx context.Context) (vaultDomain.DogGlobal, error) {
	return vaultDomain.DogGlobal{}, nil
}
func (f *fakeVaultMonitor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanCalls
}

type fakeCollateralMonitor struct {
	mu           sync.Mutex
	scanCalls    int
	opps         []auctionDomain.BiddingOpportunity
	trackedCount int
}

func (f *fakeCollateralMonitor) Start(ctx context.Context) error { return nil }
func (f *fakeCollateralMonitor) Scan(ctx context.Context) ([]auctionDomain.BiddingOpportunity, error) {
	f.mu.Lock()
	f.scanCalls++
	f.mu.Unlock()
	return f.opps, nil
}
func (f *fakeCollateralMonitor) TrackedCount() int { return f.trackedCount }
func (f *fakeCollateralMonitor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanCalls
}

type fakeFlapMonitor struct {
	mu        sync.Mutex
	scanCalls int
	opps      []auctionDomain.FlapOpportunity
}

func (f *fakeFlapMonitor) Start(ctx context.Context) error { return nil }
func (f *fakeFlapMonitor) Scan(ctx context.Context) ([]auctionDomain.FlapOpportunity, error) {
	f.mu.Lock()
	f.scanCalls++
	f.mu.Unlock()
	return f.opps, nil
}
func (f *fakeFlapMonitor) TrackedCount() int { return len(f.opps) }

type fakeFlopMonitor struct {
	mu        sync.Mutex
	scanCalls int
	opps      []auctionDomain.FlopOpportunity
}

func (f *fakeFlopMonitor) Start(ctx context.Context) error { return nil }
func (f *fakeFlopMonitor) Scan(ctx context.Context) ([]auctionDomain.FlopOpportunity, error) {
	f.mu.Lock()
	f.scanCalls++
	f.mu.Unlock()
	return f.opps, nil
}
func (f *fakeFlopMonitor) TrackedCount() int { return len(f.opps) }

type fakePegService struct {
	mu    sync.Mutex
	calls int
	opp   *pegDomain.ArbOpportunity
}

func (f *fakePegService) CheckAndArbitrage(ctx context.Context) (*pegDomain.ArbOpportunity, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.opp, nil
}
func (f *fakePegService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLiquidationExecutor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeLiquidationExecutor) Execute(ctx context.Context, opp vaultDomain.LiquidationOpportunity) (execDomain.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: common.Hash{}}, nil
}
func (f *fakeLiquidationExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTakeExecutor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTakeExecutor) Execute(ctx context.Context, opp auctionDomain.BiddingOpportunity) (execDomain.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return execDomain.Result{Outcome: execDomain.OutcomeSent}, nil
}
func (f *fakeTakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEnglishExecutor struct {
	mu        sync.Mutex
	flapCalls int
	flopCalls int
}

func (f *fakeEnglishExecutor) ExecuteFlap(ctx context.Context, opp auctionDomain.FlapOpportunity) (execDomain.Result, error) {
	f.mu.Lock()
	f.flapCalls++
	f.mu.Unlock()
	return execDomain.Result{Outcome: execDomain.OutcomeSent}, nil
}
func (f *fakeEnglishExecutor) ExecuteFlop(ctx context.Context, opp auctionDomain.FlopOpportunity) (execDomain.Result, error) {
	f.mu.Lock()
	f.flopCalls++
	f.mu.Unlock()
	return execDomain.Result{Outcome: execDomain.OutcomeSent}, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before timeout")
	}
}

// A kick-mode orchestrator dispatches liquidations but never touches
// the collateral-auction or peg monitors.
func TestOrchestrator_KickModeSkipsBidAndPeg(t *testing.T) {
	vault := &fakeVaultMonitor{opps: []vaultDomain.LiquidationOpportunity{{Vault: vaultDomain.Vault{Ilk: "ETH-A", Urn: "0xabc"}}}}
	collateral := &fakeCollateralMonitor{}
	peg := &fakePegService{}
	liquidation := &fakeLiquidationExecutor{}
	take := &fakeTakeExecutor{}
	english := &fakeEnglishExecutor{}

	orch := infra.NewOrchestrator(
		infra.Config{Mode: "kick", RunKick: true, RunBid: false, RunPeg: false, Interval: 10 * time.Millisecond, InterSendGap: time.Millisecond},
		vault, collateral, nil, nil, peg, liquidation, take, english, nil, testLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orch.Start(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return liquidation.callCount() >= 1 })
	cancel()
	<-done

	if collateral.calls() != 0 {
		t.Errorf("expected collateral monitor untouched in kick mode, got %d scans", collateral.calls())
	}
	if peg.callCount() != 0 {
		t.Errorf("expected peg service untouched in kick mode, got %d calls", peg.callCount())
	}

	health := orch.Health()
	if health.Liquidations < 1 {
		t.Errorf("expected at least one recorded liquidation, got %d", health.Liquidations)
	}
	if health.Running {
		t.Error("expected Running to be false after shutdown")
	}
}

// A full-mode orchestrator dispatches across every monitor/executor
// pair and accumulates peg-arbitrage profit.
func TestOrchestrator_FullModeDispatchesEverything(t *testing.T) {
	vault := &fakeVaultMonitor{opps: []vaultDomain.LiquidationOpportunity{{Vault: vaultDomain.Vault{Ilk: "ETH-A", Urn: "0xabc"}}}}
	collateral := &fakeCollateralMonitor{opps: []auctionDomain.BiddingOpportunity{{}}}
	flap := &fakeFlapMonitor{opps: []auctionDomain.FlapOpportunity{{Profitable: true}, {Profitable: false}}}
	flop := &fakeFlopMonitor{opps: []auctionDomain.FlopOpportunity{{Profitable: true}}}
	peg := &fakePegService{opp: &pegDomain.ArbOpportunity{ExpectedProfit: big.NewInt(500)}}
	liquidation := &fakeLiquidationExecutor{}
	take := &fakeTakeExecutor{}
	english := &fakeEnglishExecutor{}

	orch := infra.NewOrchestrator(
		infra.Config{Mode: "full", RunKick: true, RunBid: true, RunPeg: true, Interval: 10 * time.Millisecond, InterSendGap: time.Millisecond},
		vault, collateral, flap, flop, peg, liquidation, take, english, nil, testLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orch.Start(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return peg.callCount() >= 1 && take.callCount() >= 1 })
	cancel()
	<-done

	health := orch.Health()
	if health.Liquidations < 1 {
		t.Errorf("expected liquidations recorded, got %d", health.Liquidations)
	}
	// take + flap(profitable only) + flop(profitable only) all land in Bids.
	if health.Bids < 3 {
		t.Errorf("expected at least 3 bids recorded (take + profitable flap + flop, flap's unprofitable entry skipped), got %d", health.Bids)
	}
	if health.PegArbExecutions < 1 {
		t.Errorf("expected peg arb execution recorded, got %d", health.PegArbExecutions)
	}
	if health.AccumulatedGem.Cmp(big.NewInt(500)) < 0 {
		t.Errorf("expected accumulated gem profit >= 500, got %s", health.AccumulatedGem.String())
	}
}
