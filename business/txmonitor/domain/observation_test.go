package domain

import (
	"math/big"
	"testing"
	"time"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusConfirming, false},
		{StatusConfirmed, true},
		{StatusFailed, true},
		{StatusNotFound, false},
		{StatusError, false},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIsCongested(t *testing.T) {
	tests := []struct {
		name string
		fee  *big.Int
		want bool
	}{
		{"nil fee", nil, false},
		{"below threshold", gwei(50), false},
		{"at threshold", gwei(100), false},
		{"just above threshold", new(big.Int).Add(gwei(100), big.NewInt(1)), true},
		{"well above", gwei(150), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCongested(tt.fee); got != tt.want {
				t.Errorf("IsCongested(%v) = %v, want %v", tt.fee, got, tt.want)
			}
		})
	}
}

func TestNextPollInterval(t *testing.T) {
	base := 5 * time.Second
	max := 30 * time.Second

	tests := []struct {
		name      string
		current   time.Duration
		congested bool
		want      time.Duration
	}{
		{"calm resets to base", 20 * time.Second, false, base},
		{"congested grows by half", base, true, 7500 * time.Millisecond},
		{"congested caps at max", 25 * time.Second, true, max},
		{"congested at max stays at max", max, true, max},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextPollInterval(tt.current, base, max, tt.congested); got != tt.want {
				t.Errorf("NextPollInterval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommendationsFrom(t *testing.T) {
	rec := RecommendationsFrom(gwei(100))
	if rec.Slow.Cmp(gwei(80)) != 0 {
		t.Errorf("Slow = %s, want %s", rec.Slow, gwei(80))
	}
	if rec.Standard.Cmp(gwei(100)) != 0 {
		t.Errorf("Standard = %s, want %s", rec.Standard, gwei(100))
	}
	if rec.Fast.Cmp(gwei(120)) != 0 {
		t.Errorf("Fast = %s, want %s", rec.Fast, gwei(120))
	}

	if RecommendationsFrom(nil) != nil {
		t.Error("nil fee should yield nil recommendations")
	}
}

func TestObservation_WithStatus(t *testing.T) {
	now := time.Now()
	obs := &Observation{Status: StatusPending, History: []StatusChange{{Status: StatusPending, Timestamp: now}}}

	next := obs.WithStatus(StatusConfirming, now.Add(time.Second))
	if next.Status != StatusConfirming {
		t.Errorf("Status = %s, want %s", next.Status, StatusConfirming)
	}
	if len(next.History) != 2 {
		t.Fatalf("history len = %d, want 2", len(next.History))
	}

	// Same status appends nothing.
	same := next.WithStatus(StatusConfirming, now.Add(2*time.Second))
	if len(same.History) != 2 {
		t.Errorf("history len = %d after no-op transition, want 2", len(same.History))
	}

	// Original untouched.
	if obs.Status != StatusPending || len(obs.History) != 1 {
		t.Error("WithStatus mutated the receiver")
	}
}
