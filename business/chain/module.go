// Package chain implements the chain facade bounded context: the
// single gateway every other module uses to read and write the chain.
package chain

import (
	"context"
	"math/big"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	"github.com/fd1az/arbitrage-bot/business/chain/infra/ethereum"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers the Facade with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, chainDI.Facade, func(sr di.ServiceRegistry) chainApp.Facade {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		facadeCfg := ethereum.Config{
			WSURL:        cfg.Chain.WSURL,
			HTTPURL:      cfg.Chain.RPCURL,
			ChainID:      cfg.Chain.ChainID,
			PrivateKey:   cfg.Chain.PrivateKey,
			GasLimit:     cfg.Chain.GasLimit,
			GasPrice:     weiOrNil(cfg.Chain.GasPriceWei),
			MaxGasPrice:  weiOrNil(cfg.Chain.MaxGasPriceWei),
			RateLimitRPS: 20,
		}
		f, err := ethereum.New(context.Background(), facadeCfg, log)
		if err != nil {
			panic("failed to create chain facade: " + err.Error())
		}
		return f
	})
	return nil
}

// Startup implements monolith.Module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	facade := chainDI.GetFacade(mono.Services())
	id, err := facade.ChainID(ctx)
	if err != nil {
		mono.Logger().Warn(ctx, "could not confirm chain id at startup", "error", err)
		return nil
	}
	mono.Logger().Info(ctx, "chain facade connected", "chain_id", id.String())
	return nil
}

func weiOrNil(v uint64) *big.Int {
	if v == 0 {
		return nil
	}
	return new(big.Int).SetUint64(v)
}
