// Package app contains application services and port definitions for the observer context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/chainwatch/business/observer/domain"
)

// ChainDataProvider is the capability consumed by the gas engine and the
// transaction monitor. It is injected explicitly; no ambient global lookup.
type ChainDataProvider interface {
	// BlockByNumber retrieves a block by number; nil means latest.
	BlockByNumber(ctx context.Context, number *big.Int) (*domain.Block, error)

	// BlockNumber returns the current head block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// TransactionByHash returns the transaction, or found=false when the
	// node does not know the hash.
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *domain.Transaction, found bool, err error)

	// TransactionReceipt returns the receipt, or (nil, nil) while the
	// transaction is still pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error)

	// FeeData returns the node's current fee suggestions.
	FeeData(ctx context.Context) (*domain.FeeData, error)

	// EstimateGas simulates the call and returns its gas cost.
	EstimateGas(ctx context.Context, call domain.CallRequest) (uint64, error)

	// RawCall invokes a provider-specific JSON-RPC method. Best effort;
	// portability across node implementations is not guaranteed.
	RawCall(ctx context.Context, result any, method string, args ...any) error
}

// ChainEvents exposes scoped subscriptions to chain-level notifications.
// The returned unsubscribe func releases the subscription on teardown.
type ChainEvents interface {
	SubscribeNewHeads(fn func(domain.HeadEvent)) (unsubscribe func())
}
