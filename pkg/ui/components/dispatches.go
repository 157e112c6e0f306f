// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// DispatchRow represents one executor dispatch in the feed.
type DispatchRow struct {
	Timestamp string
	Kind      string // liquidation, take, flap, flop
	TxHash    string
	Outcome   string // sent, refused, failed
	Reverted  bool
	Reason    string
}

// DispatchesComponent renders the recent executor-dispatch feed.
type DispatchesComponent struct {
	rows    []DispatchRow
	maxRows int
}

// NewDispatchesComponent creates a new dispatches component.
func NewDispatchesComponent(maxRows int) *DispatchesComponent {
	return &DispatchesComponent{
		rows:    make([]DispatchRow, 0),
		maxRows: maxRows,
	}
}

// Add adds a new dispatch to the feed, most recent first.
func (d *DispatchesComponent) Add(row DispatchRow) {
	d.rows = append([]DispatchRow{row}, d.rows...)
	if len(d.rows) > d.maxRows {
		d.rows = d.rows[:d.maxRows]
	}
}

// Clear clears all dispatches.
func (d *DispatchesComponent) Clear() {
	d.rows = make([]DispatchRow, 0)
}

// View renders the dispatches component.
func (d *DispatchesComponent) View() string {
	if len(d.rows) == 0 {
		return "No dispatches yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	sentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	revertedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render(fmt.Sprintf("DISPATCHES (last %d)\n", d.maxRows))
	result += "┌──────────┬─────────────┬────────────┬─────────────────────────────┐\n"
	result += "│   Time   │    Kind     │   Outcome  │             Tx / reason     │\n"
	result += "├──────────┼─────────────┼────────────┼─────────────────────────────┤\n"

	for _, row := range d.rows {
		style := sentStyle
		icon := "✓"
		detail := row.TxHash
		switch {
		case row.Outcome == "refused":
			style = failedStyle
			icon = "·"
			detail = row.Reason
		case row.Outcome == "failed":
			style = failedStyle
			icon = "✗"
			detail = row.Reason
		case row.Reverted:
			style = revertedStyle
			icon = "⟲"
			detail = row.Reason
		}

		result += fmt.Sprintf("│%9s │%12s │ %s %-9s│ %-28s│\n",
			row.Timestamp,
			row.Kind,
			icon,
			style.Render(row.Outcome),
			truncate(detail, 28),
		)
	}

	result += "└──────────┴─────────────┴────────────┴─────────────────────────────┘"

	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
