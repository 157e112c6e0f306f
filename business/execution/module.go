// Package execution implements the execution context: liquidation,
// take, and English-auction (flap/flop) executors, wired against the
// chain facade and the Vat balance manager.
package execution

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	execApp "github.com/fd1az/arbitrage-bot/business/execution/app"
	execDI "github.com/fd1az/arbitrage-bot/business/execution/di"
	"github.com/fd1az/arbitrage-bot/business/execution/infra"
	vatDI "github.com/fd1az/arbitrage-bot/business/vat/di"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all three executors, composed against the
// already-registered chain facade and Vat balance manager.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, execDI.LiquidationExecutor, func(sr di.ServiceRegistry) execApp.LiquidationExecutor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)

		return infra.NewLiquidationExecutor(
			facade,
			common.HexToAddress(cfg.Chain.DogAddress),
			walletAddress(cfg.Chain.PrivateKey),
			func() bool { return cfg.Keeper.EmergencyStop },
			log,
		)
	})

	di.RegisterToken(c, execDI.TakeExecutor, func(sr di.ServiceRegistry) execApp.TakeExecutor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)
		balances := vatDI.GetBalanceManager(sr)

		clippers := make(map[string]common.Address, len(cfg.Ilks))
		for _, ilk := range cfg.Ilks {
			if ilk.ClipperAddress != "" {
				clippers[ilk.Name] = common.HexToAddress(ilk.ClipperAddress)
			}
		}

		return infra.NewTakeExecutor(
			facade,
			balances,
			clippers,
			walletAddress(cfg.Chain.PrivateKey),
			func() bool { return cfg.Keeper.EmergencyStop },
			log,
		)
	})

	di.RegisterToken(c, execDI.EnglishAuctionExecutor, func(sr di.ServiceRegistry) execApp.EnglishAuctionExecutor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)
		balances := vatDI.GetBalanceManager(sr)

		return infra.NewEnglishAuctionExecutor(
			facade,
			balances,
			common.HexToAddress(cfg.Chain.FlapperAddress),
			common.HexToAddress(cfg.Chain.FlopperAddress),
			common.HexToAddress(cfg.Chain.SurplusGemAddress),
			walletAddress(cfg.Chain.PrivateKey),
			func() bool { return cfg.Keeper.EmergencyStop },
			log,
		)
	})

	return nil
}

// Startup implements monolith.Module. The execution context has no
// background loop of its own; the orchestrator dispatches each
// executor against monitor-found opportunities on its own tick.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "execution module started")
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
