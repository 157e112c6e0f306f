// Package di contains dependency injection tokens for the vault context.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/vault/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// Monitor is the public token other bounded contexts depend on.
var Monitor = di.NewToken[app.Monitor]("vault.Monitor")

// GetMonitor is the type-safe accessor for the Monitor token.
func GetMonitor(c di.ServiceRegistry) app.Monitor {
	return di.GetToken(c, Monitor)
}
