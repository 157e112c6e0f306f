// Package auction implements the auction monitoring bounded context:
// collateral (Dutch), surplus, and debt auction monitors.
package auction

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	auctionApp "github.com/fd1az/arbitrage-bot/business/auction/app"
	auctionDI "github.com/fd1az/arbitrage-bot/business/auction/di"
	"github.com/fd1az/arbitrage-bot/business/auction/infra"

	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	oracleDI "github.com/fd1az/arbitrage-bot/business/oracle/di"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the auction bounded context.
type Module struct{}

// RegisterServices registers the collateral, Flap, and Flop monitors.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, auctionDI.CollateralMonitor, func(sr di.ServiceRegistry) auctionApp.CollateralMonitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)
		prices := oracleDI.GetPriceService(sr)

		clippers := make(map[string]common.Address)
		for _, ilk := range cfg.Ilks {
			if ilk.ClipperAddress == "" {
				continue
			}
			clippers[ilk.Name] = common.HexToAddress(ilk.ClipperAddress)
		}

		minProfitPercent := decimal.New(cfg.Keeper.MinProfitPercentageBps, -2)
		return infra.NewCollateralMonitor(facade, prices, common.HexToAddress(cfg.Chain.DogAddress), clippers, minProfitPercent, log)
	})

	di.RegisterToken(c, auctionDI.FlapMonitor, func(sr di.ServiceRegistry) auctionApp.FlapMonitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)
		return infra.NewFlapMonitor(facade, common.HexToAddress(cfg.Chain.FlapperAddress), auctionApp.AlwaysUnprofitable, log)
	})

	di.RegisterToken(c, auctionDI.FlopMonitor, func(sr di.ServiceRegistry) auctionApp.FlopMonitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)
		return infra.NewFlopMonitor(facade, common.HexToAddress(cfg.Chain.FlopperAddress), auctionApp.AlwaysUnprofitable, log)
	})

	return nil
}

// Startup implements monolith.Module: starts every auction monitor's
// subscription loop before the orchestrator's first tick.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()

	collateral := auctionDI.GetCollateralMonitor(sr)
	if err := collateral.Start(ctx); err != nil {
		return err
	}

	flap := auctionDI.GetFlapMonitor(sr)
	if err := flap.Start(ctx); err != nil {
		return err
	}

	flop := auctionDI.GetFlopMonitor(sr)
	if err := flop.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "auction module started")
	return nil
}
