// Package app contains the transaction monitor and its ports.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/chainwatch/business/observer/domain"
)

// TxReader is the slice of chain access the monitor needs.
// The observer context's provider satisfies it.
type TxReader interface {
	// TransactionByHash returns the transaction, or found=false when the
	// node does not know the hash.
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *domain.Transaction, found bool, err error)

	// TransactionReceipt returns the receipt, or (nil, nil) while the
	// transaction is still pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error)

	// BlockNumber returns the current head block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// FeeData returns the node's current fee suggestions.
	FeeData(ctx context.Context) (*domain.FeeData, error)

	// RawCall invokes a provider-specific JSON-RPC method.
	RawCall(ctx context.Context, result any, method string, args ...any) error
}
