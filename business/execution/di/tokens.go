// Package di contains dependency injection tokens for the execution
// context: one executor per opportunity kind.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/execution/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// LiquidationExecutor is the public token for the Dog.bark executor.
var LiquidationExecutor = di.NewToken[app.LiquidationExecutor]("execution.LiquidationExecutor")

// TakeExecutor is the public token for the Clipper.take executor.
var TakeExecutor = di.NewToken[app.TakeExecutor]("execution.TakeExecutor")

// EnglishAuctionExecutor is the public token for the Flapper/Flopper executor.
var EnglishAuctionExecutor = di.NewToken[app.EnglishAuctionExecutor]("execution.EnglishAuctionExecutor")

// GetLiquidationExecutor is the type-safe accessor for LiquidationExecutor.
func GetLiquidationExecutor(c di.ServiceRegistry) app.LiquidationExecutor {
	return di.GetToken(c, LiquidationExecutor)
}

// GetTakeExecutor is the type-safe accessor for TakeExecutor.
func GetTakeExecutor(c di.ServiceRegistry) app.TakeExecutor {
	return di.GetToken(c, TakeExecutor)
}

// GetEnglishAuctionExecutor is the type-safe accessor for EnglishAuctionExecutor.
func GetEnglishAuctionExecutor(c di.ServiceRegistry) app.EnglishAuctionExecutor {
	return di.GetToken(c, EnglishAuctionExecutor)
}
