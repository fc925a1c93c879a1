package domain

import (
	"math/big"
	"testing"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestNewFeeSnapshot_EIP1559Formula(t *testing.T) {
	// baseFee 1 gwei, bump 10 gwei -> maxFee = 1*2 + 10 = 12 gwei
	snap := NewFeeSnapshot(gwei(1), 10, DefaultGasLimit, []*big.Int{gwei(1)})

	if got, want := snap.MaxPriorityFeePerGas, gwei(10); got.Cmp(want) != 0 {
		t.Errorf("MaxPriorityFeePerGas = %s, want %s", got, want)
	}
	if got, want := snap.MaxFeePerGas, gwei(12); got.Cmp(want) != 0 {
		t.Errorf("MaxFeePerGas = %s, want %s", got, want)
	}

	// 12 gwei * 21000 gas = 252,000,000,000,000 wei, exactly
	wantCost, _ := new(big.Int).SetString("252000000000000", 10)
	if snap.EstimatedCost.Cmp(wantCost) != 0 {
		t.Errorf("EstimatedCost = %s, want %s", snap.EstimatedCost, wantCost)
	}
}

func TestNewFeeSnapshot_NilBaseFee(t *testing.T) {
	snap := NewFeeSnapshot(nil, 10, DefaultGasLimit, []*big.Int{big.NewInt(0)})

	if snap.BaseFee.Sign() != 0 {
		t.Errorf("BaseFee = %s, want 0", snap.BaseFee)
	}
	// maxFee degenerates to the priority bump alone
	if got, want := snap.MaxFeePerGas, gwei(10); got.Cmp(want) != 0 {
		t.Errorf("MaxFeePerGas = %s, want %s", got, want)
	}
}

func TestNewFeeSnapshot_DoesNotAliasInputs(t *testing.T) {
	base := gwei(5)
	snap := NewFeeSnapshot(base, 2, DefaultGasLimit, []*big.Int{base})

	base.SetInt64(0)

	if got, want := snap.BaseFee, gwei(5); got.Cmp(want) != 0 {
		t.Errorf("BaseFee mutated through input alias: %s, want %s", got, want)
	}
}

func TestSortAscending(t *testing.T) {
	sample := []*big.Int{gwei(30), gwei(10), gwei(20)}
	sorted := SortAscending(sample)

	want := []*big.Int{gwei(10), gwei(20), gwei(30)}
	for i := range want {
		if sorted[i].Cmp(want[i]) != 0 {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i], want[i])
		}
	}

	// input untouched
	if sample[0].Cmp(gwei(30)) != 0 {
		t.Errorf("input reordered in place")
	}
}

func TestConfidenceFrom(t *testing.T) {
	tests := []struct {
		name              string
		sorted            []*big.Int
		low, medium, high *big.Int
	}{
		{
			name:   "single sample collapses all bands",
			sorted: []*big.Int{gwei(7)},
			low:    gwei(7), medium: gwei(7), high: gwei(7),
		},
		{
			name:   "odd sample",
			sorted: []*big.Int{gwei(10), gwei(20), gwei(30)},
			low:    gwei(10), medium: gwei(20), high: gwei(30),
		},
		{
			name:   "even sample takes upper middle",
			sorted: []*big.Int{gwei(10), gwei(20), gwei(30), gwei(40)},
			low:    gwei(10), medium: gwei(30), high: gwei(40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ConfidenceFrom(tt.sorted)
			if c.Low.Cmp(tt.low) != 0 {
				t.Errorf("Low = %s, want %s", c.Low, tt.low)
			}
			if c.Medium.Cmp(tt.medium) != 0 {
				t.Errorf("Medium = %s, want %s", c.Medium, tt.medium)
			}
			if c.High.Cmp(tt.high) != 0 {
				t.Errorf("High = %s, want %s", c.High, tt.high)
			}
		})
	}
}

func TestTrendsFrom(t *testing.T) {
	// 10 samples: p90 index = floor(0.9*10) = 9, i.e. the maximum
	sorted := make([]*big.Int, 0, 10)
	for i := int64(1); i <= 10; i++ {
		sorted = append(sorted, gwei(i*10))
	}

	tr := TrendsFrom(sorted)

	// sum = 550 gwei, 550/10 = 55 gwei exactly
	if got, want := tr.Average, gwei(55); got.Cmp(want) != 0 {
		t.Errorf("Average = %s, want %s", got, want)
	}
	if got, want := tr.Median, gwei(60); got.Cmp(want) != 0 {
		t.Errorf("Median = %s, want %s", got, want)
	}
	if got, want := tr.Percentile90, gwei(100); got.Cmp(want) != 0 {
		t.Errorf("Percentile90 = %s, want %s", got, want)
	}
}

func TestTrendsFrom_AverageTruncates(t *testing.T) {
	sorted := []*big.Int{big.NewInt(1), big.NewInt(2)}

	tr := TrendsFrom(sorted)

	// (1+2)/2 truncates to 1
	if tr.Average.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("Average = %s, want 1", tr.Average)
	}
}

func TestHistoryWindow_MergeNewestFirst(t *testing.T) {
	w := NewHistoryWindow(HistoryCap)

	w.Merge([]BlockFeeSample{
		{Number: 102, BaseFee: gwei(12)},
		{Number: 101, BaseFee: gwei(11)},
	})
	w.Merge([]BlockFeeSample{
		{Number: 104, BaseFee: gwei(14)},
		{Number: 103, BaseFee: gwei(13)},
	})

	got := w.Snapshot()
	wantOrder := []uint64{104, 103, 102, 101}
	if len(got) != len(wantOrder) {
		t.Fatalf("len = %d, want %d", len(got), len(wantOrder))
	}
	for i, n := range wantOrder {
		if got[i].Number != n {
			t.Errorf("got[%d].Number = %d, want %d", i, got[i].Number, n)
		}
	}
}

func TestHistoryWindow_CapDropsOldest(t *testing.T) {
	w := NewHistoryWindow(3)

	for n := uint64(1); n <= 5; n++ {
		w.Merge([]BlockFeeSample{{Number: n, BaseFee: gwei(int64(n))}})
	}

	got := w.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Number != 5 || got[2].Number != 3 {
		t.Errorf("window = %v, want newest-first 5..3", got)
	}
}

func TestHistoryWindow_SnapshotIsCopy(t *testing.T) {
	w := NewHistoryWindow(HistoryCap)
	w.Merge([]BlockFeeSample{{Number: 1, BaseFee: gwei(1)}})

	snap := w.Snapshot()
	snap[0].Number = 999

	if w.Snapshot()[0].Number != 1 {
		t.Errorf("snapshot shares backing array with window")
	}
}
