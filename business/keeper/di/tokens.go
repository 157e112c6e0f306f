// Package di contains dependency injection tokens for the keeper
// orchestrator.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/keeper/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// Orchestrator is the public token for the keeper orchestrator.
var Orchestrator = di.NewToken[app.Orchestrator]("keeper.Orchestrator")

// GetOrchestrator is the type-safe accessor for Orchestrator.
func GetOrchestrator(c di.ServiceRegistry) app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}
