// Package di contains dependency injection tokens for the vat context.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/vat/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// BalanceManager is the public token other bounded contexts depend on.
var BalanceManager = di.NewToken[app.BalanceManager]("vat.BalanceManager")

// GetBalanceManager is the type-safe accessor for the BalanceManager token.
func GetBalanceManager(c di.ServiceRegistry) app.BalanceManager {
	return di.GetToken(c, BalanceManager)
}
