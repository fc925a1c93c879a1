// Package main is the entry point for chainwatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/fd1az/chainwatch/business/gas"
	gasDI "github.com/fd1az/chainwatch/business/gas/di"
	"github.com/fd1az/chainwatch/business/observer"
	observerDI "github.com/fd1az/chainwatch/business/observer/di"
	obsDomain "github.com/fd1az/chainwatch/business/observer/domain"
	"github.com/fd1az/chainwatch/business/txmonitor"
	txmonitorDI "github.com/fd1az/chainwatch/business/txmonitor/di"
	"github.com/fd1az/chainwatch/internal/apm"
	"github.com/fd1az/chainwatch/internal/config"
	"github.com/fd1az/chainwatch/internal/feeunit"
	"github.com/fd1az/chainwatch/internal/health"
	"github.com/fd1az/chainwatch/internal/logger"
	"github.com/fd1az/chainwatch/internal/metrics"
	"github.com/fd1az/chainwatch/internal/monolith"
	"github.com/fd1az/chainwatch/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	watchList := flag.String("watch", "", "Comma-separated transaction hashes to watch")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("chainwatch %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, *watchList, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, watchList string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting chainwatch",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Health check server
	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Modules in dependency order
	modules := []monolith.Module{
		&observer.Module{},  // Must be first - provides chain access
		&gas.Module{},       // Depends on observer for block data
		&txmonitor.Module{}, // Depends on observer for tx data
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer.RegisterCheck("estimation", func(ctx context.Context) (bool, string) {
		if err := gasDI.GetEngine(mono.Services()).Err(); err != nil {
			return false, err.Error()
		}
		return true, ""
	})

	watchHashes := parseWatchList(watchList)

	if tuiMode {
		startFunc := func() error {
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: "connecting"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				ui.Send(ui.StartupMsg{Step: "ethereum", Status: "failed"})
				return fmt.Errorf("failed to start modules: %w", err)
			}
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: "connected"})

			startWatches(ctx, mono, watchHashes, log)
			go feedTUI(ctx, mono, watchHashes)
			return nil
		}
		stopFunc := func() {
			gasDI.GetEngine(mono.Services()).Stop()
			txmonitorDI.GetMonitor(mono.Services()).Stop()
		}
		return runTUI(ctx, startFunc, stopFunc)
	}

	// CLI mode: start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	startWatches(ctx, mono, watchHashes, log)

	return runCLI(ctx, mono, log)
}

func parseWatchList(s string) []common.Hash {
	var hashes []common.Hash
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hashes = append(hashes, common.HexToHash(part))
	}
	return hashes
}

func startWatches(ctx context.Context, mono monolith.Monolith, hashes []common.Hash, log logger.LoggerInterface) {
	if len(hashes) == 0 {
		return
	}
	monitor := txmonitorDI.GetMonitor(mono.Services())
	for _, h := range hashes {
		if err := monitor.Watch(ctx, h); err != nil {
			log.Warn(ctx, "failed to watch transaction", "hash", h.Hex(), "error", err)
		}
	}
}

// feedTUI periodically pushes engine and monitor state into the TUI.
func feedTUI(ctx context.Context, mono monolith.Monolith, watched []common.Hash) {
	engine := gasDI.GetEngine(mono.Services())
	monitor := txmonitorDI.GetMonitor(mono.Services())
	observerSvc := observerDI.GetObserverService(mono.Services())

	unsubscribe := observerSvc.SubscribeNewHeads(func(h obsDomain.HeadEvent) {
		ui.Send(ui.BlockMsg{Number: h.Number, Timestamp: h.Timestamp})
	})
	defer unsubscribe()

	ui.Send(ui.ConnectionStatusMsg{Name: "Ethereum", Connected: true})

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap := engine.Estimation(); snap != nil {
				ui.Send(ui.FeeUpdateMsg{Snapshot: snap})
			}
			if err := engine.Err(); err != nil {
				ui.Send(ui.ErrorMsg{Error: err})
			}
			ui.Send(ui.HistoryMsg{Samples: engine.BlockHistory()})
			if prices := engine.StationPrices(); prices != nil {
				ui.Send(ui.StationMsg{Prices: prices})
			}
			for _, h := range watched {
				if obs, ok := monitor.Observation(h); ok {
					ui.Send(ui.TxStatusMsg{Hash: h, Observation: obs})
				}
			}
		}
	}
}

func runCLI(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	log.Info(ctx, "all modules started")

	engine := gasDI.GetEngine(mono.Services())
	monitor := txmonitorDI.GetMonitor(mono.Services())
	observerSvc := observerDI.GetObserverService(mono.Services())

	unsubscribe := observerSvc.SubscribeNewHeads(func(h obsDomain.HeadEvent) {
		log.Debug(ctx, "new head", "number", h.Number)
	})
	defer unsubscribe()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			engine.Stop()
			monitor.Stop()
			return nil
		case <-ticker.C:
			snap := engine.Estimation()
			if snap == nil {
				if err := engine.Err(); err != nil {
					log.Warn(ctx, "no estimate yet", "error", err)
				}
				continue
			}
			log.Info(ctx, "fee estimate",
				"base_fee_gwei", feeunit.FormatGwei(snap.BaseFee, 2),
				"max_fee_gwei", feeunit.FormatGwei(snap.MaxFeePerGas, 2),
				"est_cost_eth", feeunit.FormatEther(snap.EstimatedCost, 6),
				"sample_size", snap.SampleSize,
			)
			for _, h := range monitor.Watching() {
				if obs, ok := monitor.Observation(h); ok {
					log.Info(ctx, "tx status",
						"hash", h.Hex(),
						"status", string(obs.Status),
						"confirmations", obs.Confirmations,
						"poll_interval", obs.PollInterval,
					)
				}
			}
		}
	}
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program immediately (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
			// Welcome complete, start modules
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()
		stopFunc()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
