// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/charmbracelet/lipgloss"

	gasDomain "github.com/fd1az/chainwatch/business/gas/domain"
	"github.com/fd1az/chainwatch/internal/feeunit"
)

// FeesComponent renders the current fee estimate panel.
type FeesComponent struct {
	snapshot *gasDomain.FeeSnapshot
	station  *gasDomain.StationPrices
}

// NewFeesComponent creates a new fees component.
func NewFeesComponent() *FeesComponent {
	return &FeesComponent{}
}

// Update replaces the displayed snapshot.
func (f *FeesComponent) Update(snap *gasDomain.FeeSnapshot) {
	f.snapshot = snap
}

// SetStation replaces the displayed station prices.
func (f *FeesComponent) SetStation(prices *gasDomain.StationPrices) {
	f.station = prices
}

// View renders the fees component.
func (f *FeesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	if f.snapshot == nil {
		return headerStyle.Render("GAS FEES") + "\n\n" +
			dimStyle.Render("  Waiting for first estimation cycle...")
	}

	s := f.snapshot
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("GAS FEES"))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Base fee:      %s gwei\n", valueStyle.Render(feeunit.FormatGwei(s.BaseFee, 2))))
	sb.WriteString(fmt.Sprintf("  Priority fee:  %s gwei\n", valueStyle.Render(feeunit.FormatGwei(s.MaxPriorityFeePerGas, 2))))
	sb.WriteString(fmt.Sprintf("  Max fee:       %s gwei\n", warnStyle.Render(feeunit.FormatGwei(s.MaxFeePerGas, 2))))
	sb.WriteString(fmt.Sprintf("  Gas limit:     %s\n", valueStyle.Render(fmt.Sprintf("%d", s.GasLimit))))
	sb.WriteString(fmt.Sprintf("  Est. cost:     %s ETH\n", warnStyle.Render(feeunit.FormatEther(s.EstimatedCost, 6))))

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  CONFIDENCE (%d blocks sampled)", s.SampleSize)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  low %s · med %s · high %s gwei\n",
		feeunit.FormatGwei(s.Confidence.Low, 1),
		feeunit.FormatGwei(s.Confidence.Medium, 1),
		feeunit.FormatGwei(s.Confidence.High, 1)))

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  TRENDS"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  avg %s · median %s · p90 %s gwei\n",
		feeunit.FormatGwei(s.Trends.Average, 1),
		feeunit.FormatGwei(s.Trends.Median, 1),
		feeunit.FormatGwei(s.Trends.Percentile90, 1)))

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  CONFIRMATION TIME"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  likely ~%s · fast ~%s · urgent ~%s\n",
		s.TimeEstimates.Likely, s.TimeEstimates.Fast, s.TimeEstimates.Urgent))

	if f.station != nil {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("  STATION"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  slow %s · std %s · fast %s gwei\n",
			stationGwei(f.station.Slow),
			stationGwei(f.station.Standard),
			stationGwei(f.station.Fast)))
	}

	return sb.String()
}

func stationGwei(wei *big.Int) string {
	if wei == nil {
		return "-"
	}
	return feeunit.FormatGwei(wei, 1)
}
