// Package observer implements the chain observation bounded context.
package observer

import (
	"context"

	"github.com/fd1az/chainwatch/business/observer/app"
	observerDI "github.com/fd1az/chainwatch/business/observer/di"
	"github.com/fd1az/chainwatch/business/observer/infra/ethereum"
	"github.com/fd1az/chainwatch/internal/config"
	"github.com/fd1az/chainwatch/internal/di"
	"github.com/fd1az/chainwatch/internal/logger"
	"github.com/fd1az/chainwatch/internal/monolith"
)

// Module implements the observer bounded context.
type Module struct{}

// RegisterServices registers all observer services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ChainDataProvider (private - internal dependency)
	di.RegisterToken(c, observerDI.ChainDataProvider, func(sr di.ServiceRegistry) app.ChainDataProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providerCfg := ethereum.DefaultProviderConfig(cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.RequestTimeout > 0 {
			providerCfg.RequestTimeout = cfg.Ethereum.RequestTimeout
		}
		if cfg.Ethereum.FeeDataCacheTTL > 0 {
			providerCfg.FeeDataCacheTTL = cfg.Ethereum.FeeDataCacheTTL
		}
		if cfg.Ethereum.RPCRatePerSec > 0 {
			providerCfg.RatePerSec = cfg.Ethereum.RPCRatePerSec
			providerCfg.Burst = cfg.Ethereum.RPCBurst
		}

		provider, err := ethereum.NewProvider(providerCfg, log)
		if err != nil {
			panic("failed to create chain provider: " + err.Error())
		}
		return provider
	})

	// Register ChainEvents (private - internal dependency)
	di.RegisterToken(c, observerDI.ChainEvents, func(sr di.ServiceRegistry) app.ChainEvents {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Ethereum.WebSocketURL == "" {
			return nil
		}

		streamer, err := ethereum.NewHeadStreamer(
			ethereum.DefaultHeadStreamerConfig(cfg.Ethereum.WebSocketURL), log)
		if err != nil {
			panic("failed to create head streamer: " + err.Error())
		}
		return streamer
	})

	// Register ObserverService (public - exposed to other modules)
	di.RegisterToken(c, observerDI.ObserverService, func(sr di.ServiceRegistry) *app.ObserverService {
		provider := observerDI.GetChainDataProvider(sr)
		events := observerDI.GetChainEvents(sr)
		return app.NewObserverService(provider, events)
	})

	return nil
}

// Startup initializes the observer module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	provider := observerDI.GetChainDataProvider(mono.Services())
	if connector, ok := provider.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect chain provider", "error", err)
			// Don't fail - pollers surface provider errors per cycle
		}
	}

	if events := observerDI.GetChainEvents(mono.Services()); events != nil {
		if starter, ok := events.(interface{ Start(context.Context) error }); ok {
			if err := starter.Start(ctx); err != nil {
				log.Warn(ctx, "head streamer unavailable", "error", err)
			}
		}
	}

	log.Info(ctx, "observer module started")
	return nil
}
