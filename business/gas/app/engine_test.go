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

	gasdomain "github.com/fd1az/chainwatch/business/gas/domain"
	obsdomain "github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/logger"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

// fakeChain is an in-memory ChainReader.
type fakeChain struct {
	mu       sync.Mutex
	head     *obsdomain.Block
	headErr  error
	blocks   map[uint64]*obsdomain.Block
	gasLimit uint64
	gasErr   error
	gasCalls int
}

func newFakeChain(headNumber uint64, headBaseFee *big.Int) *fakeChain {
	return &fakeChain{
		head: &obsdomain.Block{
			Number:  headNumber,
			BaseFee: headBaseFee,
		},
		blocks: make(map[uint64]*obsdomain.Block),
	}
}

func (f *fakeChain) addBlock(number uint64, baseFee *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[number] = &obsdomain.Block{Number: number, BaseFee: baseFee}
}

func (f *fakeChain) BlockByNumber(_ context.Context, number *big.Int) (*obsdomain.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if number == nil {
		return f.head, f.headErr
	}
	blk, ok := f.blocks[number.Uint64()]
	if !ok {
		return nil, errors.New("block not found")
	}
	return blk, nil
}

func (f *fakeChain) EstimateGas(_ context.Context, _ obsdomain.CallRequest) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gasCalls++
	return f.gasLimit, f.gasErr
}

func newTestEngine(chain ChainReader, cfg EngineConfig) *Engine {
	return NewEngine(cfg, chain, nil, testLogger())
}

func TestEngine_Estimate_PlainTransfer(t *testing.T) {
	chain := newFakeChain(100, gwei(1))
	for n := uint64(97); n < 100; n++ {
		chain.addBlock(n, gwei(1))
	}

	cfg := DefaultEngineConfig()
	cfg.HistoricalBlocks = 3
	eng := newTestEngine(chain, cfg)

	snap, err := eng.Estimate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	if snap.GasLimit != gasdomain.DefaultGasLimit {
		t.Errorf("GasLimit = %d, want %d", snap.GasLimit, gasdomain.DefaultGasLimit)
	}
	// 1 gwei base * 2 + 10 gwei bump = 12 gwei; * 21000 = 252e12 wei
	wantCost, _ := new(big.Int).SetString("252000000000000", 10)
	if snap.EstimatedCost.Cmp(wantCost) != 0 {
		t.Errorf("EstimatedCost = %s, want %s", snap.EstimatedCost, wantCost)
	}
	if snap.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", snap.SampleSize)
	}
}

func TestEngine_Estimate_SimulatedGasLimit(t *testing.T) {
	chain := newFakeChain(100, gwei(1))
	chain.gasLimit = 65_000

	eng := newTestEngine(chain, EngineConfig{HistoricalBlocks: 1, PriorityFeeGwei: 10})

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	call := &obsdomain.CallRequest{To: &to, Value: big.NewInt(1)}

	snap, err := eng.Estimate(context.Background(), call)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if snap.GasLimit != 65_000 {
		t.Errorf("GasLimit = %d, want 65000", snap.GasLimit)
	}
	if chain.gasCalls != 1 {
		t.Errorf("gasCalls = %d, want 1", chain.gasCalls)
	}
}

func TestEngine_Estimate_SimulationFailureFallsBack(t *testing.T) {
	chain := newFakeChain(100, gwei(1))
	chain.gasErr = errors.New("execution reverted")

	eng := newTestEngine(chain, EngineConfig{HistoricalBlocks: 1, PriorityFeeGwei: 10})

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	snap, err := eng.Estimate(context.Background(), &obsdomain.CallRequest{To: &to})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if snap.GasLimit != gasdomain.DefaultGasLimit {
		t.Errorf("GasLimit = %d, want fallback %d", snap.GasLimit, gasdomain.DefaultGasLimit)
	}
}

func TestEngine_Estimate_AllHistoricalFetchesFail(t *testing.T) {
	// No historical blocks registered: every trail fetch errors.
	chain := newFakeChain(100, gwei(3))

	cfg := DefaultEngineConfig()
	cfg.HistoricalBlocks = 5
	eng := newTestEngine(chain, cfg)

	snap, err := eng.Estimate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	// Sample seeded with the current base fee: all bands collapse to it.
	if snap.SampleSize != 1 {
		t.Errorf("SampleSize = %d, want 1", snap.SampleSize)
	}
	for _, band := range []*big.Int{snap.Confidence.Low, snap.Confidence.Medium, snap.Confidence.High} {
		if band.Cmp(gwei(3)) != 0 {
			t.Errorf("confidence band = %s, want %s", band, gwei(3))
		}
	}
}

func TestEngine_Estimate_HeadUnavailable(t *testing.T) {
	chain := newFakeChain(100, gwei(1))
	chain.headErr = errors.New("connection refused")

	var gotErr error
	cfg := DefaultEngineConfig()
	cfg.OnError = func(err error) { gotErr = err }
	eng := newTestEngine(chain, cfg)

	_, err := eng.Estimate(context.Background(), nil)
	if err == nil {
		t.Fatal("Estimate: expected error")
	}
	if !apperror.HasCode(err, apperror.CodeProviderUnavailable) {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeProviderUnavailable)
	}
	if eng.Err() == nil {
		t.Error("Err() not set after failed cycle")
	}
	if gotErr == nil {
		t.Error("OnError not invoked")
	}
	if eng.Estimation() != nil {
		t.Error("failed cycle must not publish a snapshot")
	}

	// Recovery clears the sticky error.
	chain.mu.Lock()
	chain.headErr = nil
	chain.mu.Unlock()

	if _, err := eng.Estimate(context.Background(), nil); err != nil {
		t.Fatalf("Estimate after recovery: %v", err)
	}
	if eng.Err() != nil {
		t.Errorf("Err() = %v after successful cycle, want nil", eng.Err())
	}
}

func TestEngine_BlockHistoryAccumulates(t *testing.T) {
	chain := newFakeChain(100, gwei(1))
	chain.addBlock(99, gwei(2))

	cfg := DefaultEngineConfig()
	cfg.HistoricalBlocks = 1
	eng := newTestEngine(chain, cfg)

	if _, err := eng.Estimate(context.Background(), nil); err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	chain.mu.Lock()
	chain.head = &obsdomain.Block{Number: 101, BaseFee: gwei(4)}
	chain.mu.Unlock()
	chain.addBlock(100, gwei(1))

	if _, err := eng.Estimate(context.Background(), nil); err != nil {
		t.Fatalf("Estimate: %v", err)
	}

	hist := eng.BlockHistory()
	if len(hist) != 4 {
		t.Fatalf("history len = %d, want 4", len(hist))
	}
	if hist[0].Number != 101 {
		t.Errorf("hist[0].Number = %d, want 101 (newest first)", hist[0].Number)
	}
	if hist[len(hist)-1].Number != 99 {
		t.Errorf("oldest = %d, want 99", hist[len(hist)-1].Number)
	}
}

func TestEngine_StartPublishesAndStops(t *testing.T) {
	chain := newFakeChain(100, gwei(1))

	updated := make(chan *gasdomain.FeeSnapshot, 1)
	cfg := DefaultEngineConfig()
	cfg.HistoricalBlocks = 1
	cfg.RefreshInterval = time.Hour // only the immediate cycle should fire
	cfg.OnUpdate = func(s *gasdomain.FeeSnapshot) {
		select {
		case updated <- s:
		default:
		}
	}

	eng := newTestEngine(chain, cfg)
	eng.Start(context.Background())
	defer eng.Stop()

	select {
	case snap := <-updated:
		if snap.BaseFee.Cmp(gwei(1)) != 0 {
			t.Errorf("BaseFee = %s, want %s", snap.BaseFee, gwei(1))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published after Start")
	}

	if eng.Estimation() == nil {
		t.Error("Estimation() nil after published cycle")
	}
}
