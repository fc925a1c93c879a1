package gasstation

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/chainwatch/internal/apperror"
	"github.com/fd1az/chainwatch/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

func TestClient_Prices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"1","message":"OK","result":{"SafeGasPrice":"20","ProposeGasPrice":"25.5","FastGasPrice":"30"}}`)
	}))
	defer srv.Close()

	c, err := New(DefaultConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prices, err := c.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}

	wantSlow := new(big.Int).Mul(big.NewInt(20), big.NewInt(1_000_000_000))
	if prices.Slow.Cmp(wantSlow) != 0 {
		t.Errorf("Slow = %s, want %s", prices.Slow, wantSlow)
	}
	// 25.5 gwei = 25,500,000,000 wei
	if prices.Standard.Cmp(big.NewInt(25_500_000_000)) != 0 {
		t.Errorf("Standard = %s, want 25500000000", prices.Standard)
	}
	wantFast := new(big.Int).Mul(big.NewInt(30), big.NewInt(1_000_000_000))
	if prices.Fast.Cmp(wantFast) != 0 {
		t.Errorf("Fast = %s, want %s", prices.Fast, wantFast)
	}
}

func TestClient_Prices_OracleError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"0","message":"NOTOK","result":{}}`)
	}))
	defer srv.Close()

	c, err := New(DefaultConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Prices(context.Background()); !apperror.HasCode(err, apperror.CodeGasStationError) {
		t.Errorf("err = %v, want code %s", err, apperror.CodeGasStationError)
	}
}

func TestClient_Prices_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(DefaultConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Prices(context.Background()); !apperror.HasCode(err, apperror.CodeGasStationError) {
		t.Errorf("err = %v, want code %s", err, apperror.CodeGasStationError)
	}
}

func TestClient_Prices_MissingTiersAreNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"1","message":"OK","result":{"ProposeGasPrice":"25"}}`)
	}))
	defer srv.Close()

	c, err := New(DefaultConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	prices, err := c.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if prices.Slow != nil || prices.Fast != nil {
		t.Errorf("missing tiers should be nil, got slow=%v fast=%v", prices.Slow, prices.Fast)
	}
	if prices.Standard == nil {
		t.Error("Standard = nil, want value")
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}, testLogger()); err == nil {
		t.Fatal("New with empty URL: expected error")
	}
}
