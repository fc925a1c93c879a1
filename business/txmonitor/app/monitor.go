package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	obsdomain "github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/business/txmonitor/domain"
	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/logger"
)

// MonitorConfig configures the transaction monitor.
type MonitorConfig struct {
	// PollInterval is the base polling cadence per watch.
	PollInterval time.Duration

	// MaxPollInterval caps the adaptive backoff under congestion.
	MaxPollInterval time.Duration

	// RequiredConfirmations is the depth at which a mined transaction
	// counts as confirmed.
	RequiredConfirmations uint64

	// OnStatusChange fires on every observed status transition.
	OnStatusChange func(hash common.Hash, from, to domain.Status)

	// OnConfirmed fires once per watch when the transaction first
	// reaches the confirmed state.
	OnConfirmed func(hash common.Hash, obs *domain.Observation)

	// OnError fires when a poll fails.
	OnError func(hash common.Hash, err error)
}

// DefaultMonitorConfig returns production defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:          5 * time.Second,
		MaxPollInterval:       30 * time.Second,
		RequiredConfirmations: 1,
	}
}

// Monitor polls watched transaction hashes and tracks their lifecycle.
//
// A watch keeps polling even after reaching a terminal state: a reorg
// can move a confirmed transaction back to pending, so only Unwatch or
// Stop ends observation. Stop halts the per-watch timers but does not
// abort a poll already in flight; a running poll completes and
// publishes its observation.
type Monitor struct {
	cfg   MonitorConfig
	chain TxReader
	log   logger.LoggerInterface

	mu      sync.Mutex
	watches map[common.Hash]*watch
	closed  bool
}

type watch struct {
	obs               *domain.Observation
	interval          time.Duration
	timer             *time.Timer
	stopped           bool
	confirmedNotified bool
}

// NewMonitor creates a transaction monitor.
func NewMonitor(cfg MonitorConfig, chain TxReader, log logger.LoggerInterface) *Monitor {
	def := DefaultMonitorConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = def.MaxPollInterval
	}
	if cfg.RequiredConfirmations == 0 {
		cfg.RequiredConfirmations = def.RequiredConfirmations
	}

	return &Monitor{
		cfg:     cfg,
		chain:   chain,
		log:     log,
		watches: make(map[common.Hash]*watch),
	}
}

// Watch starts observing a transaction hash. The first poll runs
// immediately. Watching an already-watched hash is a no-op.
func (m *Monitor) Watch(ctx context.Context, hash common.Hash) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithMessage("monitor is stopped"))
	}
	if _, ok := m.watches[hash]; ok {
		m.mu.Unlock()
		return nil
	}

	w := &watch{
		interval: m.cfg.PollInterval,
		obs: &domain.Observation{
			TxHash:       hash,
			PollInterval: m.cfg.PollInterval,
		},
	}
	m.watches[hash] = w
	w.timer = time.AfterFunc(0, func() { m.pollAndReschedule(ctx, hash) })
	m.mu.Unlock()

	m.log.Info(ctx, "watching transaction", "hash", hash.Hex())
	return nil
}

// Unwatch stops observing a hash. The last observation stays readable.
func (m *Monitor) Unwatch(hash common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.watches[hash]; ok {
		w.stopped = true
		if w.timer != nil {
			w.timer.Stop()
		}
	}
}

// Observation returns the latest observation for a watched hash.
func (m *Monitor) Observation(hash common.Hash) (*domain.Observation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watches[hash]
	if !ok {
		return nil, false
	}
	return w.obs, true
}

// Watching returns the hashes currently under observation.
func (m *Monitor) Watching() []common.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]common.Hash, 0, len(m.watches))
	for h, w := range m.watches {
		if !w.stopped {
			out = append(out, h)
		}
	}
	return out
}

// Stop halts all watch timers. In-flight polls are not aborted.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, w := range m.watches {
		w.stopped = true
		if w.timer != nil {
			w.timer.Stop()
		}
	}
}

func (m *Monitor) pollAndReschedule(ctx context.Context, hash common.Hash) {
	m.mu.Lock()
	w, ok := m.watches[hash]
	if !ok || w.stopped {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.pollOnce(ctx, hash)

	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok = m.watches[hash]
	if !ok || w.stopped || m.closed {
		return
	}
	w.timer = time.AfterFunc(w.interval, func() { m.pollAndReschedule(ctx, hash) })
}

// pollOnce runs one poll cycle for a hash: observe the transaction,
// adapt the cadence to network congestion, publish, notify.
func (m *Monitor) pollOnce(ctx context.Context, hash common.Hash) {
	m.mu.Lock()
	w, ok := m.watches[hash]
	if !ok {
		m.mu.Unlock()
		return
	}
	prev := w.obs
	interval := w.interval
	m.mu.Unlock()

	fee := m.currentFee(ctx)
	next, pollErr := m.observe(ctx, hash, prev, fee)

	congested := domain.IsCongested(fee)
	newInterval := domain.NextPollInterval(interval, m.cfg.PollInterval, m.cfg.MaxPollInterval, congested)
	next.PollInterval = newInterval

	var confirmedNow bool
	m.mu.Lock()
	w, ok = m.watches[hash]
	if !ok {
		m.mu.Unlock()
		return
	}
	w.obs = next
	w.interval = newInterval
	if next.Status == domain.StatusConfirmed && !w.confirmedNotified {
		w.confirmedNotified = true
		confirmedNow = true
	}
	m.mu.Unlock()

	// Notifications run outside the lock; callbacks may call back in.
	if prev.Status != next.Status && prev.Status != "" && m.cfg.OnStatusChange != nil {
		m.cfg.OnStatusChange(hash, prev.Status, next.Status)
	}
	if confirmedNow && m.cfg.OnConfirmed != nil {
		m.cfg.OnConfirmed(hash, next)
	}
	if pollErr != nil && m.cfg.OnError != nil {
		m.cfg.OnError(hash, pollErr)
	}
}

// observe derives the next observation for a hash from chain state.
func (m *Monitor) observe(ctx context.Context, hash common.Hash, prev *domain.Observation, fee *big.Int) (*domain.Observation, error) {
	now := time.Now()

	tx, found, err := m.chain.TransactionByHash(ctx, hash)
	if err != nil {
		return m.errorObservation(prev, err, now)
	}
	if !found {
		next := prev.WithStatus(domain.StatusNotFound, now)
		next.LastError = apperror.New(apperror.CodeTransactionNotFound,
			apperror.WithContext(hash.Hex()))
		return next, nil
	}

	receipt, err := m.chain.TransactionReceipt(ctx, hash)
	if err != nil {
		return m.errorObservation(prev, err, now)
	}

	if receipt == nil {
		// Still in the mempool.
		next := prev.WithStatus(domain.StatusPending, now)
		next.Confirmations = 0
		next.Recommendations = domain.RecommendationsFrom(fee)
		next.MempoolPosition = m.mempoolPosition(ctx, tx)
		next.LastError = nil
		return next, nil
	}

	head, err := m.chain.BlockNumber(ctx)
	if err != nil {
		return m.errorObservation(prev, err, now)
	}

	var confirmations uint64
	if head >= receipt.BlockNumber {
		confirmations = head - receipt.BlockNumber + 1
	}

	status := domain.StatusConfirming
	switch {
	case !receipt.Succeeded():
		status = domain.StatusFailed
	case confirmations >= m.cfg.RequiredConfirmations:
		status = domain.StatusConfirmed
	}

	next := prev.WithStatus(status, now)
	next.Confirmations = confirmations
	next.GasUsed = receipt.GasUsed
	next.EffectiveGasPrice = receipt.EffectiveGasPrice
	next.MempoolPosition = nil
	next.Recommendations = nil
	next.LastError = nil
	if status == domain.StatusFailed {
		next.LastError = apperror.New(apperror.CodeTransactionReverted,
			apperror.WithContext(hash.Hex()))
	}
	return next, nil
}

func (m *Monitor) errorObservation(prev *domain.Observation, cause error, now time.Time) (*domain.Observation, error) {
	err := apperror.Wrap(cause, apperror.CodePollFailed, "txmonitor.poll")
	next := prev.WithStatus(domain.StatusError, now)
	next.LastError = err
	return next, err
}

// currentFee returns the node's fee suggestion, preferring the EIP-1559
// max fee. Best effort; nil when unavailable.
func (m *Monitor) currentFee(ctx context.Context) *big.Int {
	fd, err := m.chain.FeeData(ctx)
	if err != nil || fd == nil {
		return nil
	}
	if fd.MaxFeePerGas != nil {
		return fd.MaxFeePerGas
	}
	return fd.GasPrice
}

// txpool_content wire types. Geth-specific; other clients may not serve
// this endpoint, which is why the lookup stays best effort.
type txpoolEntry struct {
	Hash         common.Hash  `json:"hash"`
	MaxFeePerGas *hexutil.Big `json:"maxFeePerGas"`
	GasPrice     *hexutil.Big `json:"gasPrice"`
}

type txpoolContent struct {
	Pending map[string]map[string]txpoolEntry `json:"pending"`
}

// mempoolPosition estimates the transaction's queue position: one plus
// the number of pending transactions paying a strictly higher fee.
// Returns nil when the pool cannot be inspected or the transaction is
// not in it.
func (m *Monitor) mempoolPosition(ctx context.Context, tx *obsdomain.Transaction) *int {
	if tx == nil || tx.GasFeeCap == nil {
		return nil
	}

	var content txpoolContent
	if err := m.chain.RawCall(ctx, &content, "txpool_content"); err != nil {
		m.log.Debug(ctx, "mempool lookup failed", "error", err)
		return nil
	}

	found := false
	ahead := 0
	for _, byNonce := range content.Pending {
		for _, entry := range byNonce {
			if entry.Hash == tx.Hash {
				found = true
				continue
			}
			fee := entryFee(entry)
			if fee != nil && fee.Cmp(tx.GasFeeCap) > 0 {
				ahead++
			}
		}
	}
	if !found {
		return nil
	}

	pos := ahead + 1
	return &pos
}

func entryFee(e txpoolEntry) *big.Int {
	if e.MaxFeePerGas != nil {
		return e.MaxFeePerGas.ToInt()
	}
	if e.GasPrice != nil {
		return e.GasPrice.ToInt()
	}
	return nil
}
