package infra

import (
	"context"

	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	"github.com/fd1az/arbitrage-bot/business/keeper/domain"
	"github.com/fd1az/arbitrage-bot/pkg/ui"
)

// TUIReporter implements app.Reporter by forwarding every dispatch and
// health snapshot to the running Bubble Tea program instead of writing
// to stdout, so it never corrupts the alt-screen display.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start is a no-op; the Bubble Tea program itself is started by cmd/keeper.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// ReportDispatch forwards a dispatch to the TUI as a DispatchMsg.
func (r *TUIReporter) ReportDispatch(kind string, result execDomain.Result) {
	ui.Send(ui.DispatchMsg{Kind: kind, Result: result})
}

// ReportHealth forwards a health snapshot to the TUI as a HealthMsg.
func (r *TUIReporter) ReportHealth(h domain.KeeperHealth) {
	ui.Send(ui.HealthMsg{Health: h})
}

// Stop is a no-op; the Bubble Tea program's own lifecycle owns shutdown.
func (r *TUIReporter) Stop() error {
	return nil
}
