package feeunit

import (
	"math/big"
	"testing"
)

func TestGweiToWei(t *testing.T) {
	tests := []struct {
		gwei uint64
		want string
	}{
		{0, "0"},
		{1, "1000000000"},
		{10, "10000000000"},
		{150, "150000000000"},
	}
	for _, tt := range tests {
		got := GweiToWei(tt.gwei)
		want, _ := new(big.Int).SetString(tt.want, 10)
		if got.Cmp(want) != 0 {
			t.Errorf("GweiToWei(%d) = %s, want %s", tt.gwei, got, want)
		}
	}
}

func TestFormatGwei(t *testing.T) {
	tests := []struct {
		name   string
		wei    *big.Int
		places int32
		want   string
	}{
		{"nil", nil, 2, "0.00"},
		{"whole gwei", big.NewInt(12_000_000_000), 2, "12.00"},
		{"fractional gwei", big.NewInt(1_500_000_000), 1, "1.5"},
		{"sub gwei", big.NewInt(500_000_000), 2, "0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatGwei(tt.wei, tt.places); got != tt.want {
				t.Errorf("FormatGwei = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatEther(t *testing.T) {
	// 252,000,000,000,000 wei = 0.000252 ETH
	wei, _ := new(big.Int).SetString("252000000000000", 10)
	if got := FormatEther(wei, 6); got != "0.000252" {
		t.Errorf("FormatEther = %q, want 0.000252", got)
	}
}

func TestExceedsGwei(t *testing.T) {
	tests := []struct {
		name      string
		wei       *big.Int
		threshold int64
		want      bool
	}{
		{"nil never exceeds", nil, 100, false},
		{"below", GweiToWei(99), 100, false},
		{"exact threshold does not exceed", GweiToWei(100), 100, false},
		{"one wei above", new(big.Int).Add(GweiToWei(100), big.NewInt(1)), 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExceedsGwei(tt.wei, tt.threshold); got != tt.want {
				t.Errorf("ExceedsGwei = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScalePercent(t *testing.T) {
	base := GweiToWei(50)

	if got := ScalePercent(base, 80); got.Cmp(GweiToWei(40)) != 0 {
		t.Errorf("80%% = %s, want %s", got, GweiToWei(40))
	}
	if got := ScalePercent(base, 100); got.Cmp(base) != 0 {
		t.Errorf("100%% = %s, want %s", got, base)
	}
	if got := ScalePercent(base, 120); got.Cmp(GweiToWei(60)) != 0 {
		t.Errorf("120%% = %s, want %s", got, GweiToWei(60))
	}
	if ScalePercent(nil, 80) != nil {
		t.Error("nil input should stay nil")
	}

	// Integer division truncates.
	if got := ScalePercent(big.NewInt(3), 50); got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("50%% of 3 wei = %s, want 1", got)
	}
}
