// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	gasDomain "github.com/fd1az/chainwatch/business/gas/domain"
	"github.com/fd1az/chainwatch/internal/feeunit"
)

// HistoryComponent renders the block base-fee history table.
type HistoryComponent struct {
	samples []gasDomain.BlockFeeSample
	maxRows int
}

// NewHistoryComponent creates a new history component showing at most
// maxRows blocks.
func NewHistoryComponent(maxRows int) *HistoryComponent {
	return &HistoryComponent{maxRows: maxRows}
}

// Update replaces the displayed window. Samples are newest first.
func (h *HistoryComponent) Update(samples []gasDomain.BlockFeeSample) {
	h.samples = samples
}

// View renders the history component.
func (h *HistoryComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	blockStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("BLOCK HISTORY (%d tracked)", len(h.samples))))
	sb.WriteString("\n\n")

	if len(h.samples) == 0 {
		sb.WriteString(dimStyle.Render("  Waiting for blocks..."))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %-12s  %14s\n", "Block", "Base fee"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 28)) + "\n")

	rows := h.samples
	if len(rows) > h.maxRows {
		rows = rows[:h.maxRows]
	}
	for _, s := range rows {
		sb.WriteString(fmt.Sprintf("  %s  %14s\n",
			blockStyle.Render(fmt.Sprintf("#%-11d", s.Number)),
			feeunit.FormatGwei(s.BaseFee, 2)+" gwei",
		))
	}
	if len(h.samples) > h.maxRows {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d older blocks", len(h.samples)-h.maxRows)))
		sb.WriteString("\n")
	}

	return sb.String()
}
