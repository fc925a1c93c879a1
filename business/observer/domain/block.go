// Package domain contains the core domain types for the observer context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Block represents a chain block header as seen by the observers.
type Block struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	GasLimit   uint64
	GasUsed    uint64
	BaseFee    *big.Int // nil on chains without a fee market
}

// HasBaseFee reports whether the block carries a fee-market base fee.
func (b *Block) HasBaseFee() bool {
	return b != nil && b.BaseFee != nil
}

// HeadEvent is a lightweight new-head notification from the streaming feed.
type HeadEvent struct {
	Number    uint64
	Hash      common.Hash
	Timestamp time.Time
}

// ConnectionState represents the state of the provider connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)
