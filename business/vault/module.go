// Package vault implements the vault monitor bounded context.
package vault

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	vaultApp "github.com/fd1az/arbitrage-bot/business/vault/app"
	vaultDI "github.com/fd1az/arbitrage-bot/business/vault/di"
	"github.com/fd1az/arbitrage-bot/business/vault/infra"

	chainDI "github.com/fd1az/arbitrage-bot/business/chain/di"
	"github.com/fd1az/arbitrage-bot/internal/config"
	"github.com/fd1az/arbitrage-bot/internal/di"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/monolith"
)

// Module implements the vault bounded context.
type Module struct{}

// RegisterServices registers the Monitor, composed against the chain
// facade and the configured set of enabled ilks.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, vaultDI.Monitor, func(sr di.ServiceRegistry) vaultApp.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		facade := chainDI.GetFacade(sr)

		ilks := make([]infra.IlkSet, 0, len(cfg.Ilks))
		for _, ilk := range cfg.Ilks {
			if ilk.ClipperAddress == "" {
				continue
			}
			ilks = append(ilks, infra.IlkSet{
				Name:           ilk.Name,
				ClipperAddress: common.HexToAddress(ilk.ClipperAddress),
			})
		}

		return infra.NewMonitor(facade, common.HexToAddress(cfg.Chain.VatAddress), common.HexToAddress(cfg.Chain.DogAddress), ilks, log)
	})
	return nil
}

// Startup implements monolith.Module: hydrates the known urn set before
// the orchestrator's first tick.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	monitor := vaultDI.GetMonitor(mono.Services())
	if err := monitor.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "vault module started", "known_vaults", monitor.KnownVaultCount())
	return nil
}
