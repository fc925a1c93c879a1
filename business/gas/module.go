// Package gas implements the fee estimation bounded context.
package gas

import (
	"context"

	gasDI "github.com/fd1az/chainwatch/business/gas/di"

	"github.com/fd1az/chainwatch/business/gas/app"
	"github.com/fd1az/chainwatch/business/gas/infra/gasstation"
	observerDI "github.com/fd1az/chainwatch/business/observer/di"
	"github.com/fd1az/chainwatch/internal/config"
	"github.com/fd1az/chainwatch/internal/di"
	"github.com/fd1az/chainwatch/internal/logger"
	"github.com/fd1az/chainwatch/internal/monolith"
)

// Module implements the gas estimation bounded context.
type Module struct{}

// RegisterServices registers all gas services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register StationReader (private - optional external price source)
	di.RegisterToken(c, gasDI.StationReader, func(sr di.ServiceRegistry) app.StationReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Gas.StationURL == "" {
			return nil
		}
		station, err := gasstation.New(gasstation.DefaultConfig(cfg.Gas.StationURL), log)
		if err != nil {
			panic("failed to create gas station client: " + err.Error())
		}
		return station
	})

	// Register Engine (public - exposed to other modules)
	di.RegisterToken(c, gasDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		engineCfg := app.DefaultEngineConfig()
		if cfg.Gas.RefreshInterval > 0 {
			engineCfg.RefreshInterval = cfg.Gas.RefreshInterval
		}
		if cfg.Gas.HistoricalBlocks > 0 {
			engineCfg.HistoricalBlocks = cfg.Gas.HistoricalBlocks
		}
		if cfg.Gas.PriorityFeeGwei > 0 {
			engineCfg.PriorityFeeGwei = cfg.Gas.PriorityFeeGwei
		}

		chain := observerDI.GetChainDataProvider(sr)
		station := gasDI.GetStationReader(sr)

		return app.NewEngine(engineCfg, chain, station, log)
	})

	return nil
}

// Startup launches the estimation engine.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	engine := gasDI.GetEngine(mono.Services())
	engine.Start(ctx)

	mono.Logger().Info(ctx, "gas module started",
		"refresh_interval", mono.Config().Gas.RefreshInterval,
		"historical_blocks", mono.Config().Gas.HistoricalBlocks)
	return nil
}
