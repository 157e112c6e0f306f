// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HealthSnapshot is the display-ready projection of the keeper
// orchestrator's health, pre-formatted by the caller so this component
// does no domain math.
type HealthSnapshot struct {
	Mode             string
	MonitoredVaults  int
	ActiveAuctions   int
	Liquidations     int
	Bids             int
	PegArbExecutions int
	AccumulatedGem   string // pre-formatted, gem units
	Errors           int
}

// HealthComponent renders the keeper's running health snapshot.
type HealthComponent struct {
	snapshot *HealthSnapshot
}

// NewHealthComponent creates a new health component.
func NewHealthComponent() *HealthComponent {
	return &HealthComponent{}
}

// Update replaces the displayed snapshot.
func (h *HealthComponent) Update(snapshot HealthSnapshot) {
	h.snapshot = &snapshot
}

// View renders the health component.
func (h *HealthComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	goldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	if h.snapshot == nil {
		return headerStyle.Render("KEEPER HEALTH") + "\n\n" + dimStyle.Render("  Waiting for first tick...")
	}

	s := h.snapshot

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("KEEPER HEALTH (mode: %s)", s.Mode)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Monitored vaults:   %s\n", valueStyle.Render(fmt.Sprintf("%d", s.MonitoredVaults))))
	b.WriteString(fmt.Sprintf("  Active auctions:    %s\n", valueStyle.Render(fmt.Sprintf("%d", s.ActiveAuctions))))
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)) + "\n")
	b.WriteString(fmt.Sprintf("  Liquidations sent:  %s\n", valueStyle.Render(fmt.Sprintf("%d", s.Liquidations))))
	b.WriteString(fmt.Sprintf("  Bids sent:          %s\n", valueStyle.Render(fmt.Sprintf("%d", s.Bids))))
	b.WriteString(fmt.Sprintf("  Peg arbitrages:     %s\n", valueStyle.Render(fmt.Sprintf("%d", s.PegArbExecutions))))
	b.WriteString(fmt.Sprintf("  Accumulated profit: %s\n", goldStyle.Render(s.AccumulatedGem+" gem")))
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)) + "\n")

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.Errors))
	if s.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.Errors))
	}
	b.WriteString(fmt.Sprintf("  Errors:             %s\n", errorsDisplay))

	return b.String()
}
