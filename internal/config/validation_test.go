package config

import (
	"strings"
	"testing"
)

func baseConfig() *Config {
	return &Config{
		DefaultExchange: "binance",
		Exchanges:       map[string]ExchangeCredentials{},
		MCPTransport:    "stdio",
		LogDir:          "/tmp/logs",
		CandleSnapshots: true,
	}
}

func TestValidateWithoutCredentials(t *testing.T) {
	v := Validate(baseConfig())
	if !v.IsValid || v.HasCredentials {
		t.Fatalf("unexpected validation flags: %+v", v)
	}
	if !strings.Contains(v.Summary, "Limited functionality") {
		t.Fatalf("unexpected summary: %s", v.Summary)
	}
	joined := strings.Join(v.Warnings, "\n")
	if !strings.Contains(joined, "BINANCE_API_KEY=your_api_key_here") {
		t.Fatalf("expected setup hint in warnings, got %s", joined)
	}
}

func TestValidateWithCredentials(t *testing.T) {
	cfg := baseConfig()
	cfg.Exchanges["binance"] = ExchangeCredentials{APIKey: "k", Secret: "s"}

	v := Validate(cfg)
	if !v.IsValid || !v.HasCredentials || len(v.Warnings) != 0 {
		t.Fatalf("unexpected validation: %+v", v)
	}
	if !strings.Contains(v.Summary, "properly configured") {
		t.Fatalf("unexpected summary: %s", v.Summary)
	}
}

func TestValidateLogLevel(t *testing.T) {
	cfg := baseConfig()
	cfg.Exchanges["binance"] = ExchangeCredentials{APIKey: "k", Secret: "s"}

	for _, level := range LogLevels {
		cfg.LogLevel = level
		if v := Validate(cfg); len(v.Warnings) != 0 {
			t.Fatalf("level %q should be accepted, got %+v", level, v.Warnings)
		}
	}

	cfg.LogLevel = "verbose"
	v := Validate(cfg)
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], `Unknown LOG_LEVEL "verbose"`) {
		t.Fatalf("expected log level warning, got %+v", v.Warnings)
	}
	if !v.IsValid || !strings.Contains(v.Summary, "minor warnings") {
		t.Fatalf("unexpected validation: %+v", v)
	}
}

func TestValidateDefaultExchangeWithoutCredentials(t *testing.T) {
	cfg := baseConfig()
	cfg.Exchanges["binanceus"] = ExchangeCredentials{APIKey: "k", Secret: "s"}

	v := Validate(cfg)
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], "binanceus") {
		t.Fatalf("expected default exchange warning, got %+v", v.Warnings)
	}
	if !strings.Contains(v.Summary, "minor warnings") {
		t.Fatalf("unexpected summary: %s", v.Summary)
	}
}

func TestValidateHTTPWithoutToken(t *testing.T) {
	cfg := baseConfig()
	cfg.MCPTransport = "http"

	v := Validate(cfg)
	if v.IsValid || len(v.Errors) != 2 {
		t.Fatalf("expected two transport errors, got %+v", v.Errors)
	}
	if !strings.Contains(v.Summary, "errors") {
		t.Fatalf("unexpected summary: %s", v.Summary)
	}
}

func TestReportSections(t *testing.T) {
	report := Report(baseConfig())
	for _, want := range []string{
		"Configuration Status",
		"Overall Status",
		"❌ Binance API Key/Secret: Not configured",
		"Account-specific operations: Unavailable",
		"Quick Setup Guide",
		"❌ Market cache (REDIS_URL)",
		"✅ Candle snapshots (/tmp/logs)",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	cfg := baseConfig()
	cfg.Exchanges["binance"] = ExchangeCredentials{APIKey: "k", Secret: "s"}
	report = Report(cfg)
	if strings.Contains(report, "Quick Setup Guide") {
		t.Fatal("setup guide should be omitted when credentials exist")
	}
	if !strings.Contains(report, "✅ Binance API Key/Secret: Configured") {
		t.Fatalf("expected configured binance line:\n%s", report)
	}
}
