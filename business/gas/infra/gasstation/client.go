// Package gasstation fetches tiered gas prices from an Etherscan-style
// gas oracle endpoint.
package gasstation

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/chainwatch/business/gas/domain"
	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/httpclient"
	"github.com/fd1az/chainwatch/internal/logger"
)

// Config configures the gas station client.
type Config struct {
	// URL is the full gas oracle endpoint.
	URL string

	// RequestTimeout bounds each fetch.
	RequestTimeout time.Duration
}

// DefaultConfig returns defaults for the given endpoint.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		RequestTimeout: 5 * time.Second,
	}
}

// oracleResponse is the Etherscan gas oracle wire format. Prices are
// decimal gwei strings.
type oracleResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  struct {
		SafeGasPrice    string `json:"SafeGasPrice"`
		ProposeGasPrice string `json:"ProposeGasPrice"`
		FastGasPrice    string `json:"FastGasPrice"`
	} `json:"result"`
}

// Client fetches station prices over HTTP.
type Client struct {
	cfg  Config
	http httpclient.Client
	log  logger.LoggerInterface
}

// New creates a gas station client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("gas station URL is required"))
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig("").RequestTimeout
	}

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("gasstation"),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, http: hc, log: log}, nil
}

// Prices fetches the current tier suggestions. Individual tiers that
// fail to parse come back nil rather than failing the whole fetch.
func (c *Client) Prices(ctx context.Context) (*domain.StationPrices, error) {
	var result oracleResponse

	resp, err := c.http.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(func(status int, body []byte) error {
			if status >= 400 {
				return apperror.New(apperror.CodeGasStationError,
					apperror.WithMessage(fmt.Sprintf("gas station returned %d", status)))
			}
			return nil
		}),
	).
		SetResult(&result).
		Get(ctx, c.cfg.URL)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeGasStationError, "gasstation.Prices")
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeGasStationError,
			apperror.WithMessage(fmt.Sprintf("gas station returned %d", resp.StatusCode)))
	}
	if result.Status != "1" {
		return nil, apperror.New(apperror.CodeGasStationError,
			apperror.WithMessage("gas oracle error"),
			apperror.WithContext(result.Message))
	}

	return &domain.StationPrices{
		Slow:     c.parseGwei(ctx, "slow", result.Result.SafeGasPrice),
		Standard: c.parseGwei(ctx, "standard", result.Result.ProposeGasPrice),
		Fast:     c.parseGwei(ctx, "fast", result.Result.FastGasPrice),
	}, nil
}

// parseGwei converts a decimal gwei string to wei.
func (c *Client) parseGwei(ctx context.Context, tier, s string) *big.Int {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		c.log.Debug(ctx, "unparseable station price", "tier", tier, "value", s)
		return nil
	}
	return d.Shift(9).BigInt()
}
