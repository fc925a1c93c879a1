// Package app contains the gas estimation engine and its ports.
package app

import (
	"context"
	"math/big"

	gasdomain "github.com/fd1az/chainwatch/business/gas/domain"
	"github.com/fd1az/chainwatch/business/observer/domain"
)

// ChainReader is the slice of chain access the engine needs.
// The observer context's provider satisfies it.
type ChainReader interface {
	// BlockByNumber retrieves a block by number; nil means latest.
	BlockByNumber(ctx context.Context, number *big.Int) (*domain.Block, error)

	// EstimateGas simulates the call and returns its gas cost.
	EstimateGas(ctx context.Context, call domain.CallRequest) (uint64, error)
}

// StationReader fetches tiered prices from an external gas station API.
// Optional; the engine works without one.
type StationReader interface {
	Prices(ctx context.Context) (*gasdomain.StationPrices, error)
}
