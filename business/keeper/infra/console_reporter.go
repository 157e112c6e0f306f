package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	"github.com/fd1az/arbitrage-bot/business/keeper/domain"
)

// ConsoleReporter implements app.Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// Start prints the startup banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "KUSD Keeper Started")
	fmt.Fprintln(r.out, "====================")
	return nil
}

// ReportDispatch prints one line per executor dispatch.
func (r *ConsoleReporter) ReportDispatch(kind string, result execDomain.Result) {
	switch result.Outcome {
	case execDomain.OutcomeRefused:
		fmt.Fprintf(r.out, "[%s] %-10s refused: %s\n", time.Now().Format("15:04:05"), kind, result.Reason)
	case execDomain.OutcomeFailed:
		fmt.Fprintf(r.out, "[%s] %-10s failed: %s\n", time.Now().Format("15:04:05"), kind, result.Reason)
	case execDomain.OutcomeSent:
		if result.Reverted {
			fmt.Fprintf(r.out, "[%s] %-10s reverted: %s (tx %s)\n", time.Now().Format("15:04:05"), kind, result.Reason, result.TxHash.Hex())
		} else {
			fmt.Fprintf(r.out, "[%s] %-10s sent: tx %s\n", time.Now().Format("15:04:05"), kind, result.TxHash.Hex())
		}
	}
}

// ReportHealth prints a one-line health summary at the end of a tick.
func (r *ConsoleReporter) ReportHealth(h domain.KeeperHealth) {
	fmt.Fprintf(r.out, "[%s] mode=%s vaults=%d auctions=%d liquidations=%d bids=%d peg_arbs=%d errors=%d\n",
		h.LastTick.Format("15:04:05"), h.Mode, h.MonitoredVaults, h.ActiveAuctions, h.Liquidations, h.Bids, h.PegArbExecutions, h.Errors)
}

// Stop prints the shutdown banner.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "KUSD Keeper Stopped")
	return nil
}
