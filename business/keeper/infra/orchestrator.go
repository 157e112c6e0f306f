// Package infra implements the keeper orchestrator: one periodic
// tick, mode-gated monitor fan-out, serialized executor dispatch.
package infra

import (
	"context"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	auctionApp "github.com/fd1az/arbitrage-bot/business/auction/app"
	execApp "github.com/fd1az/arbitrage-bot/business/execution/app"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	keeperApp "github.com/fd1az/arbitrage-bot/business/keeper/app"
	"github.com/fd1az/arbitrage-bot/business/keeper/domain"
	pegApp "github.com/fd1az/arbitrage-bot/business/peg/app"
	vaultApp "github.com/fd1az/arbitrage-bot/business/vault/app"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-bot/business/keeper/infra"

// Orchestrator implements business/keeper/app.Orchestrator.
type Orchestrator struct {
	mode         string
	runKick      bool
	runBid       bool
	runPeg       bool
	interval     time.Duration
	interSendGap time.Duration

	vaultMonitor      vaultApp.Monitor
	collateralMonitor auctionApp.CollateralMonitor
	flapMonitor       auctionApp.FlapMonitor
	flopMonitor       auctionApp.FlopMonitor
	pegService        pegApp.Service

	liquidationExecutor execApp.LiquidationExecutor
	takeExecutor        execApp.TakeExecutor
	englishExecutor     execApp.EnglishAuctionExecutor

	reporter keeperApp.Reporter

	logger logger.LoggerInterface
	tracer trace.Tracer

	mu     sync.Mutex
	health domain.KeeperHealth
}

// Config groups the orchestrator's policy knobs, kept separate from
// its dependencies for readability at the call site.
type Config struct {
	Mode         string
	RunKick      bool
	RunBid       bool
	RunPeg       bool
	Interval     time.Duration
	InterSendGap time.Duration
}

// NewOrchestrator constructs an Orchestrator. Any monitor/executor may
// be nil if its mode is disabled; the tick loop checks before using
// one.
func NewOrchestrator(
	cfg Config,
	vaultMonitor vaultApp.Monitor,
	collateralMonitor auctionApp.CollateralMonitor,
	flapMonitor auctionApp.FlapMonitor,
	flopMonitor auctionApp.FlopMonitor,
	pegService pegApp.Service,
	liquidationExecutor execApp.LiquidationExecutor,
	takeExecutor execApp.TakeExecutor,
	englishExecutor execApp.EnglishAuctionExecutor,
	reporter keeperApp.Reporter,
	log logger.LoggerInterface,
) *Orchestrator {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	gap := cfg.InterSendGap
	if gap <= 0 {
		gap = 2 * time.Second
	}
	return &Orchestrator{
		mode:                cfg.Mode,
		runKick:             cfg.RunKick,
		runBid:              cfg.RunBid,
		runPeg:              cfg.RunPeg,
		interval:            interval,
		interSendGap:        gap,
		vaultMonitor:        vaultMonitor,
		collateralMonitor:   collateralMonitor,
		flapMonitor:         flapMonitor,
		flopMonitor:         flopMonitor,
		pegService:          pegService,
		liquidationExecutor: liquidationExecutor,
		takeExecutor:        takeExecutor,
		englishExecutor:     englishExecutor,
		reporter:            reporter,
		logger:              log,
		tracer:              otel.Tracer(tracerName),
		health:              domain.KeeperHealth{Mode: cfg.Mode, AccumulatedGem: big.NewInt(0)},
	}
}

// Start implements app.Orchestrator.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.runKick && o.vaultMonitor != nil {
		if err := o.vaultMonitor.Start(ctx); err != nil {
			return err
		}
	}
	if o.runBid && o.collateralMonitor != nil {
		if err := o.collateralMonitor.Start(ctx); err != nil {
			return err
		}
	}
	if o.flapMonitor != nil {
		if err := o.flapMonitor.Start(ctx); err != nil {
			return err
		}
	}
	if o.flopMonitor != nil {
		if err := o.flopMonitor.Start(ctx); err != nil {
			return err
		}
	}

	if o.reporter != nil {
		if err := o.reporter.Start(ctx); err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.health.Running = true
	o.mu.Unlock()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	o.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			o.mu.Lock()
			o.health.Running = false
			o.mu.Unlock()
			if o.reporter != nil {
				o.reporter.Stop()
			}
			o.logger.Info(ctx, "keeper orchestrator stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

// Health implements app.Orchestrator.
func (o *Orchestrator) Health() domain.KeeperHealth {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := o.health
	if o.health.AccumulatedGem != nil {
		snapshot.AccumulatedGem = new(big.Int).Set(o.health.AccumulatedGem)
	}
	return snapshot
}

func (o *Orchestrator) tick(ctx context.Context) {
	ctx, span := o.tracer.Start(ctx, "keeper.tick")
	defer span.End()

	o.mu.Lock()
	o.health.LastTick = time.Now()
	o.mu.Unlock()

	if o.runKick && o.vaultMonitor != nil {
		o.tickLiquidations(ctx)
	}
	if o.runBid && o.collateralMonitor != nil {
		o.tickTakes(ctx)
	}
	if o.flapMonitor != nil || o.flopMonitor != nil {
		o.tickEnglishAuctions(ctx)
	}
	if o.runPeg && o.pegService != nil {
		o.tickPeg(ctx)
	}

	if o.reporter != nil {
		o.reporter.ReportHealth(o.Health())
	}

	span.SetStatus(codes.Ok, "tick complete")
}

func (o *Orchestrator) tickLiquidations(ctx context.Context) {
	o.mu.Lock()
	o.health.MonitoredVaults = o.vaultMonitor.KnownVaultCount()
	o.mu.Unlock()

	opportunities, err := o.vaultMonitor.Scan(ctx)
	if err != nil {
		o.logger.Error(ctx, "vault scan failed", "error", err)
		o.incrementErrors()
		return
	}

	for i, opp := range opportunities {
		result, err := o.liquidationExecutor.Execute(ctx, opp)
		o.recordDispatch(ctx, "liquidation", result, err)
		if i < len(opportunities)-1 {
			o.sleepGap(ctx)
		}
	}
}

func (o *Orchestrator) tickTakes(ctx context.Context) {
	opportunities, err := o.collateralMonitor.Scan(ctx)
	if err != nil {
		o.logger.Error(ctx, "collateral auction scan failed", "error", err)
		o.incrementErrors()
		return
	}

	o.mu.Lock()
	o.health.ActiveAuctions = o.collateralMonitor.TrackedCount()
	o.mu.Unlock()

	for i, opp := range opportunities {
		result, err := o.takeExecutor.Execute(ctx, opp)
		o.recordDispatch(ctx, "take", result, err)
		if i < len(opportunities)-1 {
			o.sleepGap(ctx)
		}
	}
}

func (o *Orchestrator) tickEnglishAuctions(ctx context.Context) {
	if o.flapMonitor != nil {
		flaps, err := o.flapMonitor.Scan(ctx)
		if err != nil {
			o.logger.Error(ctx, "flap auction scan failed", "error", err)
			o.incrementErrors()
		} else {
			for _, opp := range flaps {
				if !opp.Profitable {
					continue
				}
				result, err := o.englishExecutor.ExecuteFlap(ctx, opp)
				o.recordDispatch(ctx, "flap", result, err)
				o.sleepGap(ctx)
			}
		}
	}
	if o.flopMonitor != nil {
		flops, err := o.flopMonitor.Scan(ctx)
		if err != nil {
			o.logger.Error(ctx, "flop auction scan failed", "error", err)
			o.incrementErrors()
		} else {
			for _, opp := range flops {
				if !opp.Profitable {
					continue
				}
				result, err := o.englishExecutor.ExecuteFlop(ctx, opp)
				o.recordDispatch(ctx, "flop", result, err)
				o.sleepGap(ctx)
			}
		}
	}
}

func (o *Orchestrator) tickPeg(ctx context.Context) {
	opp, err := o.pegService.CheckAndArbitrage(ctx)
	if err != nil {
		o.logger.Error(ctx, "peg arbitrage failed", "error", err)
		o.incrementErrors()
		return
	}
	if opp == nil {
		return
	}
	o.mu.Lock()
	o.health.PegArbExecutions++
	if opp.ExpectedProfit != nil {
		o.health.AccumulatedGem.Add(o.health.AccumulatedGem, opp.ExpectedProfit)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) recordDispatch(ctx context.Context, kind string, result execDomain.Result, err error) {
	if err != nil {
		o.logger.Error(ctx, kind+" dispatch failed", "error", err)
		o.incrementErrors()
		return
	}
	if o.reporter != nil {
		o.reporter.ReportDispatch(kind, result)
	}
	switch kind {
	case "liquidation":
		o.mu.Lock()
		o.health.Liquidations++
		o.mu.Unlock()
	case "take", "flap", "flop":
		o.mu.Lock()
		o.health.Bids++
		o.mu.Unlock()
	}
	if result.Reverted {
		o.logger.Warn(ctx, kind+" transaction reverted", "tx", result.TxHash.Hex(), "reason", result.Reason)
	}
}

func (o *Orchestrator) incrementErrors() {
	o.mu.Lock()
	o.health.Errors++
	o.mu.Unlock()
}

func (o *Orchestrator) sleepGap(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(o.interSendGap):
	}
}
