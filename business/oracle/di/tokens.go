// Package di contains dependency injection tokens for the oracle context.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/oracle/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// PriceService is the public token other bounded contexts depend on.
var PriceService = di.NewToken[app.PriceService]("oracle.PriceService")

// GetPriceService is the type-safe accessor for the PriceService token.
func GetPriceService(c di.ServiceRegistry) app.PriceService {
	return di.GetToken(c, PriceService)
}
