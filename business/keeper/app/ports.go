// Package app defines the orchestrator's port: one periodic tick
// loop, fanned out to the monitors the configured mode enables.
package app

import (
	"context"

	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	"github.com/fd1az/arbitrage-bot/business/keeper/domain"
)

// Orchestrator owns the periodic tick, mode-gated monitor fan-out, and
// serialized executor dispatch.
type Orchestrator interface {
	// Start begins the tick loop; it returns once ctx is cancelled and
	// the current tick (if any) has finished. Monitor subscriptions end
	// with ctx; Start does not wait for them to close.
	Start(ctx context.Context) error

	// Health returns the current health snapshot.
	Health() domain.KeeperHealth
}

// Reporter receives keeper lifecycle and dispatch events for
// operator-facing output. The orchestrator calls it synchronously
// from the tick loop, so implementations must not block.
type Reporter interface {
	Start(ctx context.Context) error

	// ReportDispatch is called once per executor dispatch within a
	// tick that returns without error; failed dispatches are logged
	// and counted as errors instead.
	ReportDispatch(kind string, result execDomain.Result)

	// ReportHealth is called once at the end of every tick with the
	// current health snapshot.
	ReportHealth(h domain.KeeperHealth)

	Stop() error
}
