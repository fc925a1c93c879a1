// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Gas       GasConfig       `mapstructure:"gas"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL         string        `mapstructure:"http_url"`
	WebSocketURL    string        `mapstructure:"websocket_url"`
	ChainID         uint64        `mapstructure:"chain_id"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	FeeDataCacheTTL time.Duration `mapstructure:"fee_data_cache_ttl"`
	RPCRatePerSec   float64       `mapstructure:"rpc_rate_per_sec"`
	RPCBurst        int           `mapstructure:"rpc_burst"`
}

// GasConfig holds gas estimation engine configuration.
type GasConfig struct {
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
	HistoricalBlocks int           `mapstructure:"historical_blocks"`
	PriorityFeeGwei  uint64        `mapstructure:"priority_fee_gwei"`
	StationURL       string        `mapstructure:"station_url"` // optional external gas station API
}

// MonitorConfig holds transaction monitor configuration.
type MonitorConfig struct {
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	MaxPollInterval       time.Duration `mapstructure:"max_poll_interval"`
	RequiredConfirmations uint64        `mapstructure:"required_confirmations"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CW")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CW_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CW_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CW_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "CW_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.websocket_url", "CW_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.chain_id", "CW_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Gas engine
	v.BindEnv("gas.refresh_interval", "CW_GAS_REFRESH_INTERVAL")
	v.BindEnv("gas.historical_blocks", "CW_GAS_HISTORICAL_BLOCKS")
	v.BindEnv("gas.priority_fee_gwei", "CW_GAS_PRIORITY_FEE_GWEI")
	v.BindEnv("gas.station_url", "CW_GAS_STATION_URL")

	// Monitor
	v.BindEnv("monitor.poll_interval", "CW_MONITOR_POLL_INTERVAL")
	v.BindEnv("monitor.max_poll_interval", "CW_MONITOR_MAX_POLL_INTERVAL")
	v.BindEnv("monitor.required_confirmations", "CW_MONITOR_CONFIRMATIONS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CW_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CW_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "CW_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "chainwatch")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.request_timeout", "10s")
	v.SetDefault("ethereum.fee_data_cache_ttl", "12s") // ~1 block
	v.SetDefault("ethereum.rpc_rate_per_sec", 25.0)
	v.SetDefault("ethereum.rpc_burst", 25)

	// Gas engine defaults
	v.SetDefault("gas.refresh_interval", "15s")
	v.SetDefault("gas.historical_blocks", 20)
	v.SetDefault("gas.priority_fee_gwei", 10)

	// Monitor defaults
	v.SetDefault("monitor.poll_interval", "5s")
	v.SetDefault("monitor.max_poll_interval", "30s")
	v.SetDefault("monitor.required_confirmations", 1)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "chainwatch")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.Gas.HistoricalBlocks <= 0 {
		return fmt.Errorf("gas.historical_blocks must be positive")
	}
	if c.Gas.RefreshInterval <= 0 {
		return fmt.Errorf("gas.refresh_interval must be positive")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Monitor.MaxPollInterval < c.Monitor.PollInterval {
		return fmt.Errorf("monitor.max_poll_interval must be >= monitor.poll_interval")
	}
	if c.Monitor.RequiredConfirmations == 0 {
		return fmt.Errorf("monitor.required_confirmations must be at least 1")
	}
	return nil
}
