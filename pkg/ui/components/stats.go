// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds tick-level statistics for display.
type Stats struct {
	BlocksProcessed int64
	TicksRun        int64
	Dispatches      int64
	AvgTickLatencyMs float64
	Errors          int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Blocks processed: %s  │  Ticks run: %s  │  Dispatches: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.BlocksProcessed)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.TicksRun)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Dispatches)),
		) +
		fmt.Sprintf("Avg tick latency: %s       │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%.0fms", s.stats.AvgTickLatencyMs)),
			errorsDisplay,
		)
}
