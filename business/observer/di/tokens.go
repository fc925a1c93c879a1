// Package di contains dependency injection tokens for the observer context.
package di

import (
	"github.com/fd1az/chainwatch/business/observer/app"
	"github.com/fd1az/chainwatch/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ObserverService = di.NewToken[*app.ObserverService]("observer.ObserverService")
)

// Private dependency tokens - internal to observer module
var (
	ChainDataProvider = di.NewToken[app.ChainDataProvider]("observer:chainDataProvider")
	ChainEvents       = di.NewToken[app.ChainEvents]("observer:chainEvents")
)

// Helper functions for type-safe access
func GetObserverService(c di.ServiceRegistry) *app.ObserverService {
	return di.GetToken(c, ObserverService)
}

func GetChainDataProvider(c di.ServiceRegistry) app.ChainDataProvider {
	return di.GetToken(c, ChainDataProvider)
}

func GetChainEvents(c di.ServiceRegistry) app.ChainEvents {
	return di.GetToken(c, ChainEvents)
}
