// Package ui provides the Bubble Tea TUI for the keeper bot.
package ui

import (
	"time"

	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	keeperDomain "github.com/fd1az/arbitrage-bot/business/keeper/domain"
)

// Message types for TUI updates

// DispatchMsg is sent after an executor dispatch completes.
type DispatchMsg struct {
	Kind   string
	Result execDomain.Result
}

// HealthMsg is sent with the orchestrator's health snapshot at the
// end of every tick.
type HealthMsg struct {
	Health keeperDomain.KeeperHealth
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// BlockMsg is sent when a new block is received.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// GasPriceMsg is sent when gas price is updated.
type GasPriceMsg struct {
	GweiPrice float64
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// WelcomeCompleteMsg signals the welcome screen is done (timeout or keypress).
type WelcomeCompleteMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
