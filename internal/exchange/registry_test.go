package exchange

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"crypto-mcp/internal/config"
)

func TestNewRegistryBuildsEverySupportedExchange(t *testing.T) {
	cfg := &config.Config{
		DefaultExchange: "binance",
		Exchanges: map[string]config.ExchangeCredentials{
			"binanceus": {APIKey: "k", Secret: "s"},
		},
	}
	r := NewRegistry(cfg, nil)

	if got := strings.Join(r.Supported(), ","); got != "binance,binanceus" {
		t.Fatalf("unexpected supported list: %s", got)
	}
	if got := strings.Join(r.Available(), ","); got != "binanceus" {
		t.Fatalf("unexpected available list: %s", got)
	}
	if r.DefaultID() != "binance" {
		t.Fatalf("unexpected default: %s", r.DefaultID())
	}
}

func TestRegistryGetDefaultsAndWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRegistryWith("binanceus", logger,
		NewBinance(BinanceOptions{ID: "binance"}),
		NewBinance(BinanceOptions{ID: "binanceus"}),
	)

	ex, err := r.Get("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.ID() != "binanceus" {
		t.Fatalf("expected default exchange, got %s", ex.ID())
	}
	if !strings.Contains(buf.String(), "No exchange specified, defaulting to binanceus") {
		t.Fatalf("expected default warning, got %q", buf.String())
	}

	ex, err = r.Get("BINANCE")
	if err != nil || ex.ID() != "binance" {
		t.Fatalf("expected case-insensitive lookup, got %v %v", ex, err)
	}
}

func TestRegistryGetUnsupported(t *testing.T) {
	r := NewRegistryWith("binance", nil, NewBinance(BinanceOptions{ID: "binance"}))
	_, err := r.Get("kraken")
	if !errors.Is(err, ErrUnsupportedExchange) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if !strings.Contains(err.Error(), "kraken") {
		t.Fatalf("expected id in error, got %v", err)
	}
}

func TestRegistryStatuses(t *testing.T) {
	r := NewRegistryWith("binance", nil,
		NewBinance(BinanceOptions{ID: "binance", APIKey: "k", Secret: "s"}),
		NewBinance(BinanceOptions{ID: "binanceus", APIKey: "k"}),
	)
	statuses := r.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Ready || statuses[0].Error != "" || statuses[0].Name != "Binance" {
		t.Fatalf("unexpected binance status: %+v", statuses[0])
	}
	if statuses[1].Ready || statuses[1].Error != "Missing API key/secret" {
		t.Fatalf("unexpected binanceus status: %+v", statuses[1])
	}
}
