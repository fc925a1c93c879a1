package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	obsdomain "github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/business/txmonitor/domain"
	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/logger"
)

var testHash = common.HexToHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

// fakeTxReader is an in-memory TxReader.
type fakeTxReader struct {
	mu         sync.Mutex
	tx         *obsdomain.Transaction
	found      bool
	txErr      error
	receipt    *obsdomain.Receipt
	receiptErr error
	head       uint64
	feeData    *obsdomain.FeeData
	pool       *txpoolContent
	rawErr     error
}

func (f *fakeTxReader) TransactionByHash(_ context.Context, _ common.Hash) (*obsdomain.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tx, f.found, f.txErr
}

func (f *fakeTxReader) TransactionReceipt(_ context.Context, _ common.Hash) (*obsdomain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipt, f.receiptErr
}

func (f *fakeTxReader) BlockNumber(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeTxReader) FeeData(_ context.Context) (*obsdomain.FeeData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feeData, nil
}

func (f *fakeTxReader) RawCall(_ context.Context, result any, method string, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rawErr != nil {
		return f.rawErr
	}
	if method == "txpool_content" && f.pool != nil {
		*result.(*txpoolContent) = *f.pool
	}
	return nil
}

func (f *fakeTxReader) set(fn func(*fakeTxReader)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// addWatch registers a watch without starting the background timer, so
// tests can drive polls deterministically through pollOnce.
func addWatch(m *Monitor, hash common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches[hash] = &watch{
		interval: m.cfg.PollInterval,
		obs:      &domain.Observation{TxHash: hash, PollInterval: m.cfg.PollInterval},
	}
}

func TestMonitor_PendingToConfirmingToConfirmed(t *testing.T) {
	chain := &fakeTxReader{
		tx:    &obsdomain.Transaction{Hash: testHash, GasFeeCap: gwei(20)},
		found: true,
	}

	var changes []string
	var confirmed int
	cfg := DefaultMonitorConfig()
	cfg.RequiredConfirmations = 2
	cfg.OnStatusChange = func(_ common.Hash, from, to domain.Status) {
		changes = append(changes, string(from)+"->"+string(to))
	}
	cfg.OnConfirmed = func(_ common.Hash, _ *domain.Observation) { confirmed++ }

	m := NewMonitor(cfg, chain, testLogger())
	addWatch(m, testHash)
	ctx := context.Background()

	// Poll 1: in mempool.
	m.pollOnce(ctx, testHash)
	obs, _ := m.Observation(testHash)
	if obs.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", obs.Status)
	}

	// Poll 2: mined at block 100, head 100 -> 1 confirmation.
	chain.set(func(f *fakeTxReader) {
		f.receipt = &obsdomain.Receipt{
			TxHash:            testHash,
			Status:            obsdomain.ReceiptStatusSuccessful,
			BlockNumber:       100,
			GasUsed:           21_000,
			EffectiveGasPrice: gwei(12),
		}
		f.head = 100
	})
	m.pollOnce(ctx, testHash)
	obs, _ = m.Observation(testHash)
	if obs.Status != domain.StatusConfirming {
		t.Fatalf("status = %s, want confirming", obs.Status)
	}
	if obs.Confirmations != 1 {
		t.Errorf("confirmations = %d, want 1", obs.Confirmations)
	}

	// Poll 3: head advances -> confirmed.
	chain.set(func(f *fakeTxReader) { f.head = 101 })
	m.pollOnce(ctx, testHash)
	obs, _ = m.Observation(testHash)
	if obs.Status != domain.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", obs.Status)
	}
	if obs.Confirmations != 2 {
		t.Errorf("confirmations = %d, want 2", obs.Confirmations)
	}
	if obs.GasUsed != 21_000 {
		t.Errorf("gasUsed = %d, want 21000", obs.GasUsed)
	}

	// Poll 4: terminal state keeps polling, OnConfirmed stays at one.
	m.pollOnce(ctx, testHash)
	if confirmed != 1 {
		t.Errorf("OnConfirmed fired %d times, want 1", confirmed)
	}

	wantChanges := []string{"pending->confirming", "confirming->confirmed"}
	if len(changes) != len(wantChanges) {
		t.Fatalf("changes = %v, want %v", changes, wantChanges)
	}
	for i := range wantChanges {
		if changes[i] != wantChanges[i] {
			t.Errorf("changes[%d] = %s, want %s", i, changes[i], wantChanges[i])
		}
	}

	if len(obs.History) != 3 {
		t.Errorf("history len = %d, want 3", len(obs.History))
	}
}

func TestMonitor_NotFoundThenConfirmed(t *testing.T) {
	chain := &fakeTxReader{found: false}

	var changes int
	cfg := DefaultMonitorConfig()
	cfg.OnStatusChange = func(_ common.Hash, _, _ domain.Status) { changes++ }

	m := NewMonitor(cfg, chain, testLogger())
	addWatch(m, testHash)
	ctx := context.Background()

	m.pollOnce(ctx, testHash)
	obs, _ := m.Observation(testHash)
	if obs.Status != domain.StatusNotFound {
		t.Fatalf("status = %s, want not_found", obs.Status)
	}

	chain.set(func(f *fakeTxReader) {
		f.tx = &obsdomain.Transaction{Hash: testHash}
		f.found = true
		f.receipt = &obsdomain.Receipt{
			Status:      obsdomain.ReceiptStatusSuccessful,
			BlockNumber: 50,
		}
		f.head = 50
	})
	m.pollOnce(ctx, testHash)
	obs, _ = m.Observation(testHash)
	if obs.Status != domain.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", obs.Status)
	}

	if len(obs.History) != 2 {
		t.Errorf("history len = %d, want 2", len(obs.History))
	}
	if changes != 1 {
		t.Errorf("status changes = %d, want 1 (not_found->confirmed)", changes)
	}
}

func TestMonitor_RevertedTransaction(t *testing.T) {
	chain := &fakeTxReader{
		tx:    &obsdomain.Transaction{Hash: testHash},
		found: true,
		receipt: &obsdomain.Receipt{
			Status:      obsdomain.ReceiptStatusFailed,
			BlockNumber: 10,
			GasUsed:     40_000,
		},
		head: 12,
	}

	m := NewMonitor(DefaultMonitorConfig(), chain, testLogger())
	addWatch(m, testHash)

	m.pollOnce(context.Background(), testHash)
	obs, _ := m.Observation(testHash)
	if obs.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", obs.Status)
	}
	if obs.Confirmations != 3 {
		t.Errorf("confirmations = %d, want 3", obs.Confirmations)
	}
}

func TestMonitor_PollErrorSetsErrorStatus(t *testing.T) {
	chain := &fakeTxReader{txErr: errors.New("connection reset")}

	var gotErr error
	cfg := DefaultMonitorConfig()
	cfg.OnError = func(_ common.Hash, err error) { gotErr = err }

	m := NewMonitor(cfg, chain, testLogger())
	addWatch(m, testHash)

	m.pollOnce(context.Background(), testHash)
	obs, _ := m.Observation(testHash)
	if obs.Status != domain.StatusError {
		t.Fatalf("status = %s, want error", obs.Status)
	}
	if !apperror.HasCode(obs.LastError, apperror.CodePollFailed) {
		t.Errorf("LastError = %v, want code %s", obs.LastError, apperror.CodePollFailed)
	}
	if gotErr == nil {
		t.Error("OnError not invoked")
	}
}

func TestMonitor_CongestionBacksOffAndRecovers(t *testing.T) {
	chain := &fakeTxReader{
		tx:      &obsdomain.Transaction{Hash: testHash, GasFeeCap: gwei(20)},
		found:   true,
		feeData: &obsdomain.FeeData{MaxFeePerGas: gwei(150)},
	}

	cfg := DefaultMonitorConfig()
	cfg.PollInterval = 4 * time.Second
	cfg.MaxPollInterval = 10 * time.Second

	m := NewMonitor(cfg, chain, testLogger())
	addWatch(m, testHash)
	ctx := context.Background()

	wantIntervals := []time.Duration{6 * time.Second, 9 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, want := range wantIntervals {
		m.pollOnce(ctx, testHash)
		obs, _ := m.Observation(testHash)
		if obs.PollInterval != want {
			t.Errorf("poll %d: interval = %v, want %v", i+1, obs.PollInterval, want)
		}
	}

	// Congestion clears: reset to base immediately.
	chain.set(func(f *fakeTxReader) { f.feeData = &obsdomain.FeeData{MaxFeePerGas: gwei(40)} })
	m.pollOnce(ctx, testHash)
	obs, _ := m.Observation(testHash)
	if obs.PollInterval != cfg.PollInterval {
		t.Errorf("interval = %v after congestion cleared, want %v", obs.PollInterval, cfg.PollInterval)
	}
}

func TestMonitor_PendingRecommendationsAndMempoolPosition(t *testing.T) {
	higher := common.HexToHash("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	lower := common.HexToHash("0xcccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc")

	chain := &fakeTxReader{
		tx:      &obsdomain.Transaction{Hash: testHash, GasFeeCap: gwei(20)},
		found:   true,
		feeData: &obsdomain.FeeData{MaxFeePerGas: gwei(50)},
		pool: &txpoolContent{
			Pending: map[string]map[string]txpoolEntry{
				"0x1": {
					"0": {Hash: testHash, MaxFeePerGas: (*hexutil.Big)(gwei(20))},
					"1": {Hash: higher, MaxFeePerGas: (*hexutil.Big)(gwei(90))},
				},
				"0x2": {
					"0": {Hash: lower, MaxFeePerGas: (*hexutil.Big)(gwei(5))},
				},
			},
		},
	}

	m := NewMonitor(DefaultMonitorConfig(), chain, testLogger())
	addWatch(m, testHash)

	m.pollOnce(context.Background(), testHash)
	obs, _ := m.Observation(testHash)

	if obs.MempoolPosition == nil || *obs.MempoolPosition != 2 {
		t.Errorf("MempoolPosition = %v, want 2", obs.MempoolPosition)
	}

	rec := obs.Recommendations
	if rec == nil {
		t.Fatal("Recommendations nil while pending")
	}
	if rec.Slow.Cmp(gwei(40)) != 0 || rec.Standard.Cmp(gwei(50)) != 0 || rec.Fast.Cmp(gwei(60)) != 0 {
		t.Errorf("Recommendations = %s/%s/%s, want 40/50/60 gwei", rec.Slow, rec.Standard, rec.Fast)
	}
}

func TestMonitor_MempoolLookupFailureIsAbsorbed(t *testing.T) {
	chain := &fakeTxReader{
		tx:     &obsdomain.Transaction{Hash: testHash, GasFeeCap: gwei(20)},
		found:  true,
		rawErr: errors.New("method txpool_content does not exist"),
	}

	m := NewMonitor(DefaultMonitorConfig(), chain, testLogger())
	addWatch(m, testHash)

	m.pollOnce(context.Background(), testHash)
	obs, _ := m.Observation(testHash)
	if obs.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", obs.Status)
	}
	if obs.MempoolPosition != nil {
		t.Errorf("MempoolPosition = %v, want nil", obs.MempoolPosition)
	}
}

func TestMonitor_WatchUnwatchStop(t *testing.T) {
	chain := &fakeTxReader{found: false}
	m := NewMonitor(DefaultMonitorConfig(), chain, testLogger())
	ctx := context.Background()

	if err := m.Watch(ctx, testHash); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	// Duplicate watch is a no-op.
	if err := m.Watch(ctx, testHash); err != nil {
		t.Fatalf("duplicate Watch: %v", err)
	}
	if got := len(m.Watching()); got != 1 {
		t.Errorf("Watching() len = %d, want 1", got)
	}

	m.Unwatch(testHash)
	if got := len(m.Watching()); got != 0 {
		t.Errorf("Watching() len = %d after Unwatch, want 0", got)
	}

	// Observation remains readable after Unwatch.
	if _, ok := m.Observation(testHash); !ok {
		t.Error("Observation lost after Unwatch")
	}

	m.Stop()
	if err := m.Watch(ctx, common.HexToHash("0x01")); err == nil {
		t.Error("Watch after Stop: expected error")
	}
}
