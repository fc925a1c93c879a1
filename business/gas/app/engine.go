package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	gasdomain "github.com/fd1az/chainwatch/business/gas/domain"
	obsdomain "github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/logger"
)

// EngineConfig configures the estimation engine.
type EngineConfig struct {
	// RefreshInterval is the cadence of automatic estimation cycles.
	RefreshInterval time.Duration

	// HistoricalBlocks is how many blocks behind the head each cycle
	// samples for the statistical bands.
	HistoricalBlocks int

	// PriorityFeeGwei is the miner tip bump applied on top of the base
	// fee, in whole gwei.
	PriorityFeeGwei uint64

	// OnUpdate fires after every successful cycle with the new snapshot.
	OnUpdate func(*gasdomain.FeeSnapshot)

	// OnError fires when a cycle fails entirely.
	OnError func(error)
}

// DefaultEngineConfig returns production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RefreshInterval:  15 * time.Second,
		HistoricalBlocks: 20,
		PriorityFeeGwei:  10,
	}
}

// Engine periodically estimates EIP-1559 fees from recent chain data.
//
// Each cycle fetches the latest block plus a short trail of historical
// blocks, derives confidence bands and trends from the sampled base
// fees, and publishes an immutable FeeSnapshot. Snapshots are
// last-write-wins: a slow background cycle and a caller-driven
// Estimate overwrite each other in completion order.
type Engine struct {
	cfg     EngineConfig
	chain   ChainReader
	station StationReader // may be nil
	log     logger.LoggerInterface

	mu       sync.RWMutex
	snapshot *gasdomain.FeeSnapshot
	prices   *gasdomain.StationPrices
	lastErr  error
	window   *gasdomain.HistoryWindow

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewEngine creates an estimation engine. station may be nil when no
// external gas station is configured.
func NewEngine(cfg EngineConfig, chain ChainReader, station StationReader, log logger.LoggerInterface) *Engine {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultEngineConfig().RefreshInterval
	}
	if cfg.HistoricalBlocks <= 0 {
		cfg.HistoricalBlocks = DefaultEngineConfig().HistoricalBlocks
	}

	return &Engine{
		cfg:     cfg,
		chain:   chain,
		station: station,
		log:     log,
		window:  gasdomain.NewHistoryWindow(gasdomain.HistoryCap),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the refresh loop. The first cycle runs immediately;
// subsequent cycles run every RefreshInterval until Stop is called or
// ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		defer close(e.done)

		e.refresh(ctx)

		ticker := time.NewTicker(e.cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stop:
				return
			case <-ticker.C:
				e.refresh(ctx)
			}
		}
	}()
}

// Stop halts the refresh loop. It does not abort an in-flight cycle;
// a cycle already running completes and publishes its result.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	<-e.done
}

// Estimate runs one estimation cycle for a specific call, resolving the
// gas limit by simulation. It publishes the resulting snapshot like the
// background loop does. call may be nil for a plain-transfer estimate.
func (e *Engine) Estimate(ctx context.Context, call *obsdomain.CallRequest) (*gasdomain.FeeSnapshot, error) {
	return e.cycle(ctx, call)
}

// Estimation returns the most recently published snapshot, or nil before
// the first successful cycle.
func (e *Engine) Estimation() *gasdomain.FeeSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Err returns the error from the last failed cycle. A successful cycle
// clears it.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// BlockHistory returns the cumulative block fee window, newest first.
func (e *Engine) BlockHistory() []gasdomain.BlockFeeSample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window.Snapshot()
}

// StationPrices returns the last successfully fetched external station
// prices, or nil when no station is configured or none succeeded yet.
func (e *Engine) StationPrices() *gasdomain.StationPrices {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prices
}

func (e *Engine) refresh(ctx context.Context) {
	if _, err := e.cycle(ctx, nil); err != nil {
		e.log.Warn(ctx, "estimation cycle failed", "error", err)
	}
}

// cycle runs one full estimation: head fetch, historical sampling, gas
// limit resolution, snapshot publication.
func (e *Engine) cycle(ctx context.Context, call *obsdomain.CallRequest) (*gasdomain.FeeSnapshot, error) {
	latest, err := e.chain.BlockByNumber(ctx, nil)
	if err != nil || latest == nil {
		appErr := apperror.New(apperror.CodeProviderUnavailable,
			apperror.WithMessage("latest block unavailable"),
			apperror.WithContext("gas.engine"),
			apperror.WithCause(err))
		e.fail(appErr)
		return nil, appErr
	}

	baseFee := latest.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	sample, cycleBlocks := e.sampleHistory(ctx, latest, baseFee)

	gasLimit := e.resolveGasLimit(ctx, call)

	snap := gasdomain.NewFeeSnapshot(baseFee, e.cfg.PriorityFeeGwei, gasLimit, sample)

	prices := e.fetchStationPrices(ctx)

	e.mu.Lock()
	e.window.Merge(cycleBlocks)
	e.snapshot = snap
	if prices != nil {
		e.prices = prices
	}
	e.lastErr = nil
	e.mu.Unlock()

	if e.cfg.OnUpdate != nil {
		e.cfg.OnUpdate(snap)
	}
	return snap, nil
}

// sampleHistory fetches up to HistoricalBlocks blocks behind latest.
// Individual fetch failures are absorbed: the sample shrinks rather than
// failing the cycle. An empty sample is seeded with the current base fee
// so the statistics always have at least one point.
func (e *Engine) sampleHistory(ctx context.Context, latest *obsdomain.Block, baseFee *big.Int) ([]*big.Int, []gasdomain.BlockFeeSample) {
	sample := make([]*big.Int, 0, e.cfg.HistoricalBlocks)
	cycleBlocks := make([]gasdomain.BlockFeeSample, 0, e.cfg.HistoricalBlocks+1)
	cycleBlocks = append(cycleBlocks, gasdomain.BlockFeeSample{Number: latest.Number, BaseFee: baseFee})

	for i := 1; i <= e.cfg.HistoricalBlocks; i++ {
		if latest.Number < uint64(i) {
			break
		}
		num := new(big.Int).SetUint64(latest.Number - uint64(i))

		blk, err := e.chain.BlockByNumber(ctx, num)
		if err != nil || !blk.HasBaseFee() {
			continue
		}
		sample = append(sample, blk.BaseFee)
		cycleBlocks = append(cycleBlocks, gasdomain.BlockFeeSample{Number: blk.Number, BaseFee: blk.BaseFee})
	}

	if len(sample) == 0 {
		sample = append(sample, baseFee)
	}
	return sample, cycleBlocks
}

// resolveGasLimit simulates the call when one is given, falling back to
// the plain-transfer limit on any simulation failure.
func (e *Engine) resolveGasLimit(ctx context.Context, call *obsdomain.CallRequest) uint64 {
	if call == nil {
		return gasdomain.DefaultGasLimit
	}
	limit, err := e.chain.EstimateGas(ctx, *call)
	if err != nil {
		e.log.Warn(ctx, "gas simulation failed, using transfer default",
			"error", err, "fallback", gasdomain.DefaultGasLimit)
		return gasdomain.DefaultGasLimit
	}
	return limit
}

// fetchStationPrices asks the external station for tiered prices.
// Failures only log; station data is advisory.
func (e *Engine) fetchStationPrices(ctx context.Context) *gasdomain.StationPrices {
	if e.station == nil {
		return nil
	}
	prices, err := e.station.Prices(ctx)
	if err != nil {
		e.log.Debug(ctx, "gas station fetch failed", "error", err)
		return nil
	}
	return prices
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()

	if e.cfg.OnError != nil {
		e.cfg.OnError(err)
	}
}
