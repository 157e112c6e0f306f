// Package keeper wires the orchestrator against every monitor and
// executor the configured mode enables, and starts its tick loop as
// a monolith background service.
package keeper

import (
	"context"
	"time"

	auctionDI "github.com/fd1az/arbitrage-bot/business/auction/di"
	execDI "github.com/fd1az/arbitrage-bot/business/execution/di"
	keeperApp "github.com/fd1az/arbitrage-bot/business/keeper/app"
	keeperDI "github.com/fd1az/arbitrage-bot/business/keeper/di"
	"github.com/fd1az/arbitrage-bot/business/keeper/infra"
	pegDI "github.com/fd1az/arbitrage-bot/business/peg/di"
	vaultDI "github.com/fd1az/arbitrage-bot/business/vault/di"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the keeper orchestrator bounded context.
type Module struct{}

// RegisterServices registers the orchestrator against whichever
// monitors and executors the configured mode calls for.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, keeperDI.Orchestrator, func(sr di.ServiceRegistry) keeperApp.Orchestrator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var reporter keeperApp.Reporter
		if cfg.App.TUIMode {
			reporter = infra.NewTUIReporter()
		} else {
			reporter = infra.NewConsoleReporter()
		}

		runKick := cfg.Keeper.Mode == config.ModeKick || cfg.Keeper.Mode == config.ModeFull
		runBid := cfg.Keeper.Mode == config.ModeBid || cfg.Keeper.Mode == config.ModeFull
		runPeg := cfg.Keeper.Mode == config.ModePeg || cfg.Keeper.Mode == config.ModeFull

		orchCfg := infra.Config{
			Mode:         string(cfg.Keeper.Mode),
			RunKick:      runKick,
			RunBid:       runBid,
			RunPeg:       runPeg,
			Interval:     cfg.Keeper.CheckInterval,
			InterSendGap: 2 * time.Second,
		}

		return infra.NewOrchestrator(
			orchCfg,
			vaultDI.GetMonitor(sr),
			auctionDI.GetCollateralMonitor(sr),
			auctionDI.GetFlapMonitor(sr),
			auctionDI.GetFlopMonitor(sr),
			pegDI.GetService(sr),
			execDI.GetLiquidationExecutor(sr),
			execDI.GetTakeExecutor(sr),
			execDI.GetEnglishAuctionExecutor(sr),
			reporter,
			log,
		)
	})

	return nil
}

// Startup implements monolith.Module: it launches the orchestrator's
// tick loop on a background goroutine tied to the monolith's
// lifecycle context.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "keeper module started")

	orchestrator := keeperDI.GetOrchestrator(mono.Services())
	go func() {
		if err := orchestrator.Start(ctx); err != nil {
			mono.Logger().Error(ctx, "keeper orchestrator exited", "error", err)
		}
	}()

	return nil
}
