// Package vat implements the Vat balance manager bounded context.
package vat

import (
	"context"

	vatApp "github.com/fd1az/arbitrage-bot/business/vat/app"
	vatDI "github.com/fd1az/arbitrage-bot/business/vat/di"
	"github.com/fd1az/arbitrage-bot/business/vat/infra"

	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the vat bounded context.
type Module struct{}

// RegisterServices registers the BalanceManager, composed against the
// already-registered chain facade.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, vatDI.BalanceManager, func(sr di.ServiceRegistry) vatApp.BalanceManager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)
		return infra.NewManager(facade, common.HexToAddress(cfg.Chain.VatAddress), cfg.Chain.VatBalanceSelector, log)
	})
	return nil
}

// Startup implements monolith.Module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "vat module started")
	return nil
}
