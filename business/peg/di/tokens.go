// Package di declares the peg bounded context's DI tokens.
package di

import (
	"github.com/fd1az/arbitrage-bot/business/peg/app"
	"github.com/fd1az/arbitrage-bot/internal/di"
)

var Service = di.NewToken[app.Service]("peg.Service")

func GetService(c di.ServiceRegistry) app.Service { return di.GetToken(c, Service) }
