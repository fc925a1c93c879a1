// Package feeunit provides conversions between wei and gwei fee units.
//
// All on-chain arithmetic in the application stays in *big.Int wei to avoid
// rounding drift; decimal values appear only at display and threshold
// comparison boundaries.
package feeunit

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiPerGwei is the fixed unit multiplier between gwei and wei (10^9).
var WeiPerGwei = big.NewInt(1_000_000_000)

// GweiToWei converts a whole-gwei amount to wei.
func GweiToWei(gwei uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gwei), WeiPerGwei)
}

// WeiToGwei converts wei to a decimal gwei value for display and comparison.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -9)
}

// FormatGwei renders wei as a gwei string with the given decimal places.
func FormatGwei(wei *big.Int, places int32) string {
	return WeiToGwei(wei).StringFixed(places)
}

// FormatEther renders wei as an ether string with the given decimal places.
func FormatEther(wei *big.Int, places int32) string {
	if wei == nil {
		return decimal.Zero.StringFixed(places)
	}
	return decimal.NewFromBigInt(wei, -18).StringFixed(places)
}

// ExceedsGwei reports whether wei is strictly greater than the given
// whole-gwei threshold.
func ExceedsGwei(wei *big.Int, thresholdGwei int64) bool {
	if wei == nil {
		return false
	}
	return WeiToGwei(wei).GreaterThan(decimal.NewFromInt(thresholdGwei))
}

// ScalePercent returns wei scaled by pct/100 using integer arithmetic.
// Used for slow/standard/fast recommendation bands.
func ScalePercent(wei *big.Int, pct int64) *big.Int {
	if wei == nil {
		return nil
	}
	scaled := new(big.Int).Mul(wei, big.NewInt(pct))
	return scaled.Div(scaled, big.NewInt(100))
}
