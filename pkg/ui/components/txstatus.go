// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	txDomain "github.com/fd1az/chainwatch/business/txmonitor/domain"
)

// TxRow represents a watched transaction in the list.
type TxRow struct {
	Hash          string
	Status        txDomain.Status
	Confirmations uint64
	GasUsed       uint64
	Interval      string
	MempoolPos    string
}

// TxStatusComponent renders the watched transactions table.
type TxStatusComponent struct {
	rows map[string]TxRow
	// insertion order, so rows don't jump around between renders
	order []string
}

// NewTxStatusComponent creates a new transaction status component.
func NewTxStatusComponent() *TxStatusComponent {
	return &TxStatusComponent{rows: make(map[string]TxRow)}
}

// Update upserts a transaction's row from its latest observation.
func (t *TxStatusComponent) Update(obs *txDomain.Observation) {
	if obs == nil {
		return
	}
	hash := obs.TxHash.Hex()

	pos := "-"
	if obs.MempoolPosition != nil {
		pos = fmt.Sprintf("#%d", *obs.MempoolPosition)
	}

	row := TxRow{
		Hash:          shortHash(hash),
		Status:        obs.Status,
		Confirmations: obs.Confirmations,
		GasUsed:       obs.GasUsed,
		Interval:      obs.PollInterval.String(),
		MempoolPos:    pos,
	}

	if _, ok := t.rows[hash]; !ok {
		t.order = append(t.order, hash)
	}
	t.rows[hash] = row
}

// View renders the transaction status component.
func (t *TxStatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("WATCHED TRANSACTIONS"))
	sb.WriteString("\n\n")

	if len(t.order) == 0 {
		sb.WriteString(dimStyle.Render("  No transactions watched"))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %-14s %-12s %6s %10s %8s %8s\n",
		"Tx", "Status", "Confs", "Gas used", "Pool", "Poll"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 62)) + "\n")

	for _, hash := range t.order {
		row := t.rows[hash]
		sb.WriteString(fmt.Sprintf("  %-14s %-12s %6d %10d %8s %8s\n",
			row.Hash,
			statusStyle(row.Status).Render(string(row.Status)),
			row.Confirmations,
			row.GasUsed,
			row.MempoolPos,
			row.Interval,
		))
	}

	return sb.String()
}

func statusStyle(s txDomain.Status) lipgloss.Style {
	switch s {
	case txDomain.StatusConfirmed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	case txDomain.StatusFailed, txDomain.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	case txDomain.StatusConfirming:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	}
}

func shortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:8] + "…" + hash[len(hash)-4:]
}
