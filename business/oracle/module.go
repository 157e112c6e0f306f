// Package oracle implements the price service bounded context.
package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/arbitrage-bot/business/oracle/app"
	oracleDI "github.com/fd1az/arbitrage-bot/business/oracle/di"
	"github.com/fd1az/arbitrage-bot/business/oracle/infra"

	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the oracle bounded context.
type Module struct{}

// RegisterServices registers the PriceService, keyed by the ilk oracle
// addresses configured for each enabled collateral type.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, oracleDI.PriceService, func(sr di.ServiceRegistry) app.PriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)

		addresses := make(map[string]common.Address, len(cfg.Ilks))
		for _, ilk := range cfg.Ilks {
			if ilk.OracleAddress == "" {
				continue
			}
			addresses[ilk.Name] = common.HexToAddress(ilk.OracleAddress)
		}
		return infra.NewService(facade, addresses, infra.DefaultTTL, log)
	})
	return nil
}

// Startup implements monolith.Module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "oracle module started")
	return nil
}
