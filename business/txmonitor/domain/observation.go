// Package domain contains the core domain types for transaction monitoring.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/chainwatch/internal/feeunit"
)

// Status is the observed lifecycle state of a watched transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirming Status = "confirming"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
	StatusNotFound   Status = "not_found"
	StatusError      Status = "error"
)

// Terminal reports whether the status is a final chain outcome. Watches
// keep polling past terminal states; reorgs can still move a confirmed
// transaction back.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// CongestionThresholdGwei is the network fee level above which the
// monitor backs off its polling cadence.
const CongestionThresholdGwei = 100

// IsCongested reports whether the given network fee (wei) signals
// congestion.
func IsCongested(fee *big.Int) bool {
	return feeunit.ExceedsGwei(fee, CongestionThresholdGwei)
}

// NextPollInterval adapts the polling cadence: under congestion the
// interval grows by half each poll up to max; otherwise it resets to
// base immediately.
func NextPollInterval(current, base, max time.Duration, congested bool) time.Duration {
	if !congested {
		return base
	}
	next := current + current/2
	if next > max {
		return max
	}
	return next
}

// Recommendations are tiered replacement-fee suggestions derived from
// the current network fee: 80%, 100% and 120%.
type Recommendations struct {
	Slow     *big.Int
	Standard *big.Int
	Fast     *big.Int
}

// RecommendationsFrom derives the tiers from the current network fee.
// Returns nil when no fee is known.
func RecommendationsFrom(fee *big.Int) *Recommendations {
	if fee == nil {
		return nil
	}
	return &Recommendations{
		Slow:     feeunit.ScalePercent(fee, 80),
		Standard: feeunit.ScalePercent(fee, 100),
		Fast:     feeunit.ScalePercent(fee, 120),
	}
}

// StatusChange is one entry in a watch's status history.
type StatusChange struct {
	Status    Status
	Timestamp time.Time
}

// Observation is the current view of a watched transaction. It is a
// snapshot; the monitor replaces it wholesale on every poll.
type Observation struct {
	TxHash            common.Hash
	Status            Status
	Confirmations     uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int

	// MempoolPosition is the 1-based queue position among pending
	// transactions, nil when unknown.
	MempoolPosition *int

	// Recommendations are replacement-fee tiers, populated while the
	// transaction is pending.
	Recommendations *Recommendations

	// History records every status transition since the watch started.
	History []StatusChange

	// PollInterval is the cadence currently in effect for this watch.
	PollInterval time.Duration

	// LastError holds the error from the most recent failed poll.
	LastError error

	UpdatedAt time.Time
}

// WithStatus returns a copy with the status applied and, when it
// differs from the current one, appended to the history.
func (o *Observation) WithStatus(s Status, now time.Time) *Observation {
	next := *o
	next.History = append([]StatusChange(nil), o.History...)
	if o.Status != s {
		next.History = append(next.History, StatusChange{Status: s, Timestamp: now})
	}
	next.Status = s
	next.UpdatedAt = now
	return &next
}
