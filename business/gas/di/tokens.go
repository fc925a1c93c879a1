// Package di contains dependency injection tokens for the gas context.
package di

import (
	"github.com/fd1az/chainwatch/business/gas/app"
	"github.com/fd1az/chainwatch/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine = di.NewToken[*app.Engine]("gas.Engine")
)

// Private dependency tokens - internal to gas module
var (
	StationReader = di.NewToken[app.StationReader]("gas:stationReader")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetStationReader(c di.ServiceRegistry) app.StationReader {
	return di.GetToken(c, StationReader)
}
