// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// Facade is the public token other bounded contexts depend on.
var Facade = di.NewToken[app.Facade]("chain.Facade")

// GetFacade is the type-safe accessor for the Facade token.
func GetFacade(c di.ServiceRegistry) app.Facade {
	return di.GetToken(c, Facade)
}
