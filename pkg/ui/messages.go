// Package ui provides the Bubble Tea TUI for the chainwatch dashboard.
package ui

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	gasDomain "github.com/fd1az/chainwatch/business/gas/domain"
	txDomain "github.com/fd1az/chainwatch/business/txmonitor/domain"
)

// Message types for TUI updates

// FeeUpdateMsg is sent when the gas engine publishes a new snapshot.
type FeeUpdateMsg struct {
	Snapshot *gasDomain.FeeSnapshot
}

// HistoryMsg carries the cumulative block fee window.
type HistoryMsg struct {
	Samples []gasDomain.BlockFeeSample
}

// StationMsg is sent when external gas station prices refresh.
type StationMsg struct {
	Prices *gasDomain.StationPrices
}

// TxStatusMsg is sent when a watched transaction's observation changes.
type TxStatusMsg struct {
	Hash        common.Hash
	Observation *txDomain.Observation
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// BlockMsg is sent when a new head is received.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

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
