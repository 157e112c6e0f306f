// Package di contains dependency injection tokens for the auction
// context: collateral, surplus, and debt auction monitors.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/auction/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

// CollateralMonitor is the public token for the Dutch-auction monitor.
var CollateralMonitor = di.NewToken[app.CollateralMonitor]("auction.CollateralMonitor")

// FlapMonitor is the public token for the surplus-auction monitor.
var FlapMonitor = di.NewToken[app.FlapMonitor]("auction.FlapMonitor")

// FlopMonitor is the public token for the debt-auction monitor.
var FlopMonitor = di.NewToken[app.FlopMonitor]("auction.FlopMonitor")

// GetCollateralMonitor is the type-safe accessor for CollateralMonitor.
func GetCollateralMonitor(c di.ServiceRegistry) app.CollateralMonitor {
	return di.GetToken(c, CollateralMonitor)
}

// GetFlapMonitor is the type-safe accessor for FlapMonitor.
func GetFlapMonitor(c di.ServiceRegistry) app.FlapMonitor {
	return di.GetToken(c, FlapMonitor)
}

// GetFlopMonitor is the type-safe accessor for FlopMonitor.
func GetFlopMonitor(c di.ServiceRegistry) app.FlopMonitor {
	return di.GetToken(c, FlopMonitor)
}
