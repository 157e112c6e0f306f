// Package peg implements the peg arbitrage service bounded context:
// PSM + DEX pair state machine.
package peg

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	pegApp "github.com/fd1az/arbitrage-bot/business/peg/app"
	pegDI "github.com/fd1az/arbitrage-bot/business/peg/di"
	"github.com/fd1az/arbitrage-bot/business/peg/infra"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the peg bounded context.
type Module struct{}

// RegisterServices registers the Service, composed against the
// already-registered chain facade.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pegDI.Service, func(sr di.ServiceRegistry) pegApp.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)

		maxArbAmount := new(big.Int)
		if _, ok := maxArbAmount.SetString(cfg.Peg.MaxArbAmount, 10); !ok {
			maxArbAmount.SetInt64(0)
		}

		return infra.NewService(
			facade,
			common.HexToAddress(cfg.Peg.PSMAddress),
			common.HexToAddress(cfg.Peg.DEXRouterAddress),
			common.HexToAddress(cfg.Peg.DEXPairAddress),
			walletAddress(cfg.Chain.PrivateKey),
			decimal.New(cfg.Peg.UpperLimitBps, -4),
			decimal.New(cfg.Peg.LowerLimitBps, -4),
			maxArbAmount,
			decimal.New(cfg.Peg.MinArbProfitPercentBps, -2),
			decimal.New(cfg.Peg.SlippageToleranceBps, -4),
			cfg.Peg.Cooldown,
			decimal.New(cfg.Peg.MaxTradePercentOfPool, -2),
			log,
		)
	})
	return nil
}

// Startup implements monolith.Module. The peg service has no
// background loop of its own; the orchestrator drives
// CheckAndArbitrage on its own tick.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "peg module started")
	return nil
}

func walletAddress(privateKeyHex string) common.Address {
	if privateKeyHex == "" {
		return common.Address{}
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(key.PublicKey)
}
