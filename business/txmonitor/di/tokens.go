// Package di contains dependency injection tokens for the txmonitor context.
package di

import (
	"github.com/fd1az/chainwatch/business/txmonitor/app"
	"github.com/fd1az/chainwatch/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Monitor = di.NewToken[*app.Monitor]("txmonitor.Monitor")
)

// Helper functions for type-safe access
func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}
