package domain

import "math/big"

// StationPrices are tiered gas price suggestions from an external gas
// station API, in wei. Best effort; any field may be nil.
type StationPrices struct {
	Slow     *big.Int
	Standard *big.Int
	Fast     *big.Int
}
