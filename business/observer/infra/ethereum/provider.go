// Package ethereum provides chain data provider adapters backed by go-ethereum.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/cache"
	"github.com/fd1az/chainwatch/internal/circuitbreaker"
	"github.com/fd1az/chainwatch/internal/logger"
	"github.com/fd1az/chainwatch/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/chainwatch/business/observer/infra/ethereum"
	meterName  = "github.com/fd1az/chainwatch/business/observer/infra/ethereum"

	feeDataCacheKey = "current"
)

// ProviderConfig holds configuration for the Ethereum provider adapter.
type ProviderConfig struct {
	HTTPURL         string        // JSON-RPC endpoint
	RequestTimeout  time.Duration // per-call timeout
	FeeDataCacheTTL time.Duration // how long fee suggestions stay fresh
	RatePerSec      float64       // RPC call budget
	Burst           int
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig(httpURL string) ProviderConfig {
	return ProviderConfig{
		HTTPURL:         httpURL,
		RequestTimeout:  10 * time.Second,
		FeeDataCacheTTL: 12 * time.Second, // ~1 block
		RatePerSec:      25,
		Burst:           25,
	}
}

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	rpcCalls     metric.Int64Counter
	rpcErrors    metric.Int64Counter
	headBlock    metric.Int64Gauge
	feeCacheHits metric.Int64Counter
}

// Provider implements the ChainDataProvider port using go-ethereum.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface

	client   *ethclient.Client
	rpc      *rpc.Client
	clientMu sync.RWMutex

	// Fee suggestion caching
	feeCache *cache.Cache[string, *domain.FeeData]

	// Call budget and resilience
	limiter  *ratelimit.Limiter
	headerCB *circuitbreaker.CircuitBreaker[*types.Header]

	// Observability
	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a new Ethereum provider adapter.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	p := &Provider{
		config:   cfg,
		logger:   log,
		feeCache: cache.New[string, *domain.FeeData](5 * time.Minute),
		limiter:  ratelimit.NewWithBurst(cfg.RatePerSec, cfg.Burst),
		headerCB: circuitbreaker.New[*types.Header](circuitbreaker.DefaultConfig("eth-header")),
		tracer:   otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return p, nil
}

// initMetrics initializes OTEL metric instruments.
func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.rpcCalls, err = meter.Int64Counter(
		"chain_rpc_calls_total",
		metric.WithDescription("Total chain RPC calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	p.metrics.rpcErrors, err = meter.Int64Counter(
		"chain_rpc_errors_total",
		metric.WithDescription("Total chain RPC call failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	p.metrics.headBlock, err = meter.Int64Gauge(
		"chain_head_block",
		metric.WithDescription("Most recently observed head block number"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	p.metrics.feeCacheHits, err = meter.Int64Counter(
		"fee_data_cache_hits_total",
		metric.WithDescription("Fee data cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Connect establishes the connection to the Ethereum node.
func (p *Provider) Connect(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "provider.connect",
		trace.WithAttributes(attribute.String("url", p.config.HTTPURL)),
	)
	defer span.End()

	rpcClient, err := rpc.DialContext(ctx, p.config.HTTPURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return apperror.New(apperror.CodeConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect chain provider"))
	}

	p.clientMu.Lock()
	p.rpc = rpcClient
	p.client = ethclient.NewClient(rpcClient)
	p.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	p.logger.Info(ctx, "chain provider connected", "url", p.config.HTTPURL)

	return nil
}

// clients returns the current client pair, or an error when not connected.
func (p *Provider) clients() (*ethclient.Client, *rpc.Client, error) {
	p.clientMu.RLock()
	client, rpcClient := p.client, p.rpc
	p.clientMu.RUnlock()

	if client == nil {
		return nil, nil, apperror.New(apperror.CodeProviderUnavailable,
			apperror.WithContext("chain provider not connected"))
	}
	return client, rpcClient, nil
}

// BlockByNumber retrieves a block header by number; nil means latest.
func (p *Provider) BlockByNumber(ctx context.Context, number *big.Int) (*domain.Block, error) {
	ctx, span := p.tracer.Start(ctx, "provider.block_by_number")
	defer span.End()

	if number != nil {
		span.SetAttributes(attribute.Int64("number", number.Int64()))
	}

	client, _, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "header_by_number")))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	header, err := p.headerCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(callCtx, number)
	})
	if err != nil {
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if errors.Is(err, ethereum.NotFound) {
			return nil, apperror.New(apperror.CodeBlockNotFound, apperror.WithCause(err))
		}
		return nil, apperror.New(apperror.CodeProviderRPCError,
			apperror.WithCause(err),
			apperror.WithContext("header fetch failed"))
	}

	block := headerToBlock(header)
	if number == nil {
		p.metrics.headBlock.Record(ctx, int64(block.Number))
	}

	span.SetStatus(codes.Ok, "fetched")
	return block, nil
}

// BlockNumber returns the current head block number.
func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, span := p.tracer.Start(ctx, "provider.block_number")
	defer span.End()

	client, _, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return 0, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "block_number")))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	n, err := client.BlockNumber(callCtx)
	if err != nil {
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		return 0, apperror.New(apperror.CodeProviderRPCError,
			apperror.WithCause(err),
			apperror.WithContext("block number fetch failed"))
	}

	p.metrics.headBlock.Record(ctx, int64(n))
	span.SetStatus(codes.Ok, "fetched")
	return n, nil
}

// TransactionByHash returns the transaction, or found=false when unknown.
func (p *Provider) TransactionByHash(ctx context.Context, hash common.Hash) (*domain.Transaction, bool, error) {
	ctx, span := p.tracer.Start(ctx, "provider.transaction_by_hash",
		trace.WithAttributes(attribute.String("hash", hash.Hex())),
	)
	defer span.End()

	client, _, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, false, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "transaction_by_hash")))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	tx, pending, err := client.TransactionByHash(callCtx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			span.AddEvent("transaction_not_found")
			return nil, false, nil
		}
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		return nil, false, apperror.New(apperror.CodeProviderRPCError,
			apperror.WithCause(err),
			apperror.WithContext("transaction fetch failed"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return &domain.Transaction{
		Hash:      tx.Hash(),
		Nonce:     tx.Nonce(),
		GasLimit:  tx.Gas(),
		GasFeeCap: tx.GasFeeCap(),
		GasTipCap: tx.GasTipCap(),
		Value:     tx.Value(),
		Pending:   pending,
	}, true, nil
}

// TransactionReceipt returns the receipt, or (nil, nil) while pending.
func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	ctx, span := p.tracer.Start(ctx, "provider.transaction_receipt",
		trace.WithAttributes(attribute.String("hash", hash.Hex())),
	)
	defer span.End()

	client, _, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "transaction_receipt")))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	receipt, err := client.TransactionReceipt(callCtx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			span.AddEvent("receipt_not_available")
			return nil, nil
		}
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeProviderRPCError,
			apperror.WithCause(err),
			apperror.WithContext("receipt fetch failed"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return &domain.Receipt{
		TxHash:            receipt.TxHash,
		Status:            receipt.Status,
		BlockNumber:       receipt.BlockNumber.Uint64(),
		GasUsed:           receipt.GasUsed,
		EffectiveGasPrice: receipt.EffectiveGasPrice,
	}, nil
}

// FeeData returns the node's current fee suggestions, cached for ~1 block.
func (p *Provider) FeeData(ctx context.Context) (*domain.FeeData, error) {
	ctx, span := p.tracer.Start(ctx, "provider.fee_data")
	defer span.End()

	if fees, found := p.feeCache.Get(ctx, feeDataCacheKey); found {
		p.metrics.feeCacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return fees, nil
	}

	client, _, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "fee_data")))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	gasPrice, err := client.SuggestGasPrice(callCtx)
	if err != nil {
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeProviderRPCError,
			apperror.WithCause(err),
			apperror.WithContext("gas price fetch failed"))
	}

	fees := &domain.FeeData{GasPrice: gasPrice}

	// EIP-1559 fields are best effort; pre-fee-market chains leave them nil.
	if tipCap, err := client.SuggestGasTipCap(callCtx); err == nil {
		fees.MaxPriorityFeePerGas = tipCap

		if head, err := p.headerCB.Execute(func() (*types.Header, error) {
			return client.HeaderByNumber(callCtx, nil)
		}); err == nil && head.BaseFee != nil {
			// maxFee = 2*baseFee + tip, the conventional inclusion bound.
			maxFee := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
			fees.MaxFeePerGas = maxFee.Add(maxFee, tipCap)
		}
	}

	p.feeCache.Set(ctx, feeDataCacheKey, fees, p.config.FeeDataCacheTTL)

	span.SetStatus(codes.Ok, "fetched")
	return fees, nil
}

// EstimateGas simulates the call and returns its gas cost.
func (p *Provider) EstimateGas(ctx context.Context, call domain.CallRequest) (uint64, error) {
	ctx, span := p.tracer.Start(ctx, "provider.estimate_gas",
		trace.WithAttributes(attribute.Int("data_len", len(call.Data))),
	)
	defer span.End()

	client, _, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return 0, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", "estimate_gas")))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	msg := ethereum.CallMsg{
		From:  call.From,
		To:    call.To,
		Value: call.Value,
		Data:  call.Data,
	}

	gas, err := client.EstimateGas(callCtx, msg)
	if err != nil {
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, apperror.New(apperror.CodeSimulationFailed,
			apperror.WithCause(err),
			apperror.WithContext("gas simulation failed"))
	}

	span.SetAttributes(attribute.Int64("gas", int64(gas)))
	span.SetStatus(codes.Ok, "estimated")
	return gas, nil
}

// RawCall invokes a provider-specific JSON-RPC method.
func (p *Provider) RawCall(ctx context.Context, result any, method string, args ...any) error {
	ctx, span := p.tracer.Start(ctx, "provider.raw_call",
		trace.WithAttributes(attribute.String("method", method)),
	)
	defer span.End()

	_, rpcClient, err := p.clients()
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}
	p.metrics.rpcCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))

	callCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	if err := rpcClient.CallContext(callCtx, result, method, args...); err != nil {
		p.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		return apperror.New(apperror.CodeProviderRPCError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("raw call %s failed", method)))
	}

	span.SetStatus(codes.Ok, "called")
	return nil
}

// Close closes the provider connection and its caches.
func (p *Provider) Close() error {
	p.clientMu.Lock()
	defer p.clientMu.Unlock()

	if p.client != nil {
		p.client.Close()
		p.client = nil
		p.rpc = nil
	}

	p.feeCache.Close()

	return nil
}

// headerToBlock converts an Ethereum header to a domain Block.
func headerToBlock(header *types.Header) *domain.Block {
	return &domain.Block{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
		GasLimit:   header.GasLimit,
		GasUsed:    header.GasUsed,
		BaseFee:    header.BaseFee,
	}
}
