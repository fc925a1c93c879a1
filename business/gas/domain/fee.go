// Package domain contains the core domain types for the gas estimation context.
package domain

import (
	"math/big"
	"sort"
	"time"

	"github.com/fd1az/chainwatch/internal/feeunit"
)

const (
	// DefaultGasLimit is the gas cost of a plain value transfer, used
	// whenever no transaction is supplied or simulation fails.
	DefaultGasLimit uint64 = 21_000

	// HistoryCap bounds the cumulative block fee window. It is a memory
	// bound, not a statistical requirement.
	HistoryCap = 100
)

// Confirmation time tiers. These are fixed advisory constants, not derived
// from chain data.
var (
	TimeLikely = 30 * time.Second
	TimeFast   = 15 * time.Second
	TimeUrgent = 5 * time.Second
)

// ConfidenceBands are fee levels drawn from the sorted historical sample.
type ConfidenceBands struct {
	Low    *big.Int
	Medium *big.Int
	High   *big.Int
}

// HistoricalTrends summarize the historical base-fee sample.
type HistoricalTrends struct {
	Average      *big.Int
	Median       *big.Int
	Percentile90 *big.Int
}

// TimeEstimates are advisory confirmation-time tiers.
type TimeEstimates struct {
	Likely time.Duration
	Fast   time.Duration
	Urgent time.Duration
}

// FeeSnapshot is an immutable fee estimate produced once per estimation
// cycle. All amounts are wei (*big.Int); no floating point is used
// anywhere in the computation.
type FeeSnapshot struct {
	BaseFee              *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
	EstimatedCost        *big.Int
	Confidence           ConfidenceBands
	Trends               HistoricalTrends
	TimeEstimates        TimeEstimates
	SampleSize           int
	Timestamp            time.Time
}

// NewFeeSnapshot builds a snapshot from the current base fee, the
// configured priority fee bump (whole gwei), the resolved gas limit, and
// the historical base-fee sample. The sample must be non-empty; callers
// seed it with the current base fee when no history is available.
func NewFeeSnapshot(baseFee *big.Int, priorityFeeGwei uint64, gasLimit uint64, sample []*big.Int) *FeeSnapshot {
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	maxPriority := feeunit.GweiToWei(priorityFeeGwei)

	// maxFee = baseFee*2 + maxPriorityFee
	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, maxPriority)

	cost := new(big.Int).Mul(maxFee, new(big.Int).SetUint64(gasLimit))

	sorted := SortAscending(sample)

	return &FeeSnapshot{
		BaseFee:              new(big.Int).Set(baseFee),
		MaxPriorityFeePerGas: maxPriority,
		MaxFeePerGas:         maxFee,
		GasLimit:             gasLimit,
		EstimatedCost:        cost,
		Confidence:           ConfidenceFrom(sorted),
		Trends:               TrendsFrom(sorted),
		TimeEstimates: TimeEstimates{
			Likely: TimeLikely,
			Fast:   TimeFast,
			Urgent: TimeUrgent,
		},
		SampleSize: len(sorted),
		Timestamp:  time.Now(),
	}
}

// SortAscending returns a stably sorted copy of sample in ascending
// numeric order. Ties keep their original order.
func SortAscending(sample []*big.Int) []*big.Int {
	sorted := make([]*big.Int, len(sample))
	copy(sorted, sample)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})
	return sorted
}

// ConfidenceFrom derives the low/medium/high bands from a sorted,
// non-empty sample: minimum, median, maximum.
func ConfidenceFrom(sorted []*big.Int) ConfidenceBands {
	n := len(sorted)
	return ConfidenceBands{
		Low:    new(big.Int).Set(sorted[0]),
		Medium: new(big.Int).Set(sorted[n/2]),
		High:   new(big.Int).Set(sorted[n-1]),
	}
}

// TrendsFrom derives average, median and 90th percentile from a sorted,
// non-empty sample. Average uses integer division; the percentile index
// truncates, which degenerates toward the median for very small samples.
func TrendsFrom(sorted []*big.Int) HistoricalTrends {
	n := len(sorted)

	sum := new(big.Int)
	for _, v := range sorted {
		sum.Add(sum, v)
	}

	return HistoricalTrends{
		Average:      sum.Div(sum, big.NewInt(int64(n))),
		Median:       new(big.Int).Set(sorted[n/2]),
		Percentile90: new(big.Int).Set(sorted[n*9/10]),
	}
}

// BlockFeeSample is one block's base fee observation.
type BlockFeeSample struct {
	Number  uint64
	BaseFee *big.Int
}

// HistoryWindow is a cumulative, newest-first window of block fee samples,
// capped at HistoryCap entries. It accumulates across estimation cycles;
// each cycle prepends its freshly fetched blocks and truncates. The
// per-cycle statistical sample is deliberately decoupled from this window.
type HistoryWindow struct {
	samples []BlockFeeSample
	cap     int
}

// NewHistoryWindow creates a window capped at capacity entries.
// capacity <= 0 falls back to HistoryCap.
func NewHistoryWindow(capacity int) *HistoryWindow {
	if capacity <= 0 {
		capacity = HistoryCap
	}
	return &HistoryWindow{cap: capacity}
}

// Merge prepends newest (already newest-first) and truncates to capacity.
func (w *HistoryWindow) Merge(newest []BlockFeeSample) {
	if len(newest) == 0 {
		return
	}
	merged := make([]BlockFeeSample, 0, len(newest)+len(w.samples))
	merged = append(merged, newest...)
	merged = append(merged, w.samples...)
	if len(merged) > w.cap {
		merged = merged[:w.cap]
	}
	w.samples = merged
}

// Snapshot returns a copy of the window, newest first.
func (w *HistoryWindow) Snapshot() []BlockFeeSample {
	out := make([]BlockFeeSample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Len returns the number of samples held.
func (w *HistoryWindow) Len() int {
	return len(w.samples)
}
