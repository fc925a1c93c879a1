package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is the subset of transaction data the monitors need.
type Transaction struct {
	Hash      common.Hash
	Nonce     uint64
	GasLimit  uint64
	GasFeeCap *big.Int
	GasTipCap *big.Int
	Value     *big.Int
	Pending   bool // true while the node reports it as not yet mined
}

// Receipt status values, matching the chain's receipt status field.
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// Receipt represents a mined transaction's execution receipt.
type Receipt struct {
	TxHash            common.Hash
	Status            uint64
	BlockNumber       uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == ReceiptStatusSuccessful
}

// CallRequest is a transaction payload for gas simulation.
type CallRequest struct {
	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte
}

// FeeData holds the node's current fee suggestions. Any field may be nil
// when the node cannot provide it.
type FeeData struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}
