// Package txmonitor implements the transaction monitoring bounded context.
package txmonitor

import (
	"context"

	txmonitorDI "github.com/fd1az/chainwatch/business/txmonitor/di"

	observerDI "github.com/fd1az/chainwatch/business/observer/di"
	"github.com/fd1az/chainwatch/business/txmonitor/app"
	txdomain "github.com/fd1az/chainwatch/business/txmonitor/domain"
	"github.com/fd1az/chainwatch/internal/config"
	"github.com/fd1az/chainwatch/internal/di"
	"github.com/fd1az/chainwatch/internal/logger"
	"github.com/fd1az/chainwatch/internal/monolith"

	"github.com/ethereum/go-ethereum/common"
)

// Module implements the transaction monitoring bounded context.
type Module struct{}

// RegisterServices registers all txmonitor services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, txmonitorDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		monitorCfg := app.DefaultMonitorConfig()
		if cfg.Monitor.PollInterval > 0 {
			monitorCfg.PollInterval = cfg.Monitor.PollInterval
		}
		if cfg.Monitor.MaxPollInterval > 0 {
			monitorCfg.MaxPollInterval = cfg.Monitor.MaxPollInterval
		}
		if cfg.Monitor.RequiredConfirmations > 0 {
			monitorCfg.RequiredConfirmations = cfg.Monitor.RequiredConfirmations
		}

		monitorCfg.OnStatusChange = func(hash common.Hash, from, to txdomain.Status) {
			log.Info(context.Background(), "transaction status changed",
				"hash", hash.Hex(), "from", string(from), "to", string(to))
		}
		monitorCfg.OnConfirmed = func(hash common.Hash, obs *txdomain.Observation) {
			log.Info(context.Background(), "transaction confirmed",
				"hash", hash.Hex(), "confirmations", obs.Confirmations, "gas_used", obs.GasUsed)
		}
		monitorCfg.OnError = func(hash common.Hash, err error) {
			log.Warn(context.Background(), "transaction poll failed",
				"hash", hash.Hex(), "error", err)
		}

		chain := observerDI.GetChainDataProvider(sr)
		return app.NewMonitor(monitorCfg, chain, log)
	})

	return nil
}

// Startup initializes the txmonitor module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	// Force construction so misconfiguration surfaces at startup.
	_ = txmonitorDI.GetMonitor(mono.Services())

	mono.Logger().Info(ctx, "txmonitor module started",
		"poll_interval", mono.Config().Monitor.PollInterval,
		"required_confirmations", mono.Config().Monitor.RequiredConfirmations)
	return nil
}
