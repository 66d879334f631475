package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "LOG_DIR", "LOG_RETENTION_DAYS", "DEFAULT_EXCHANGE",
		"BINANCE_API_KEY", "BINANCE_SECRET", "BINANCE_API_SECRET",
		"BINANCEUS_API_KEY", "BINANCEUS_SECRET", "BINANCEUS_API_SECRET",
		"DATABASE_URL", "REDIS_URL", "MARKET_CACHE_TTL_SECS", "CANDLE_SNAPSHOTS",
		"README_PATH", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"MCP_TRANSPORT", "MCP_HTTP_ENABLED", "MCP_HTTP_BIND", "MCP_HTTP_PORT",
		"MCP_AUTH_TOKEN", "MCP_REQUEST_TIMEOUT_SECS", "MCP_RATE_LIMIT_PER_MIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.LogLevel != "info" || cfg.LogRetentionDays != 7 {
		t.Fatalf("unexpected log defaults: level=%s retention=%d", cfg.LogLevel, cfg.LogRetentionDays)
	}
	if !strings.HasSuffix(cfg.LogDir, filepath.Join(".crypto-mcp-server", "logs")) {
		t.Fatalf("unexpected log dir: %s", cfg.LogDir)
	}
	if cfg.DefaultExchange != "binance" {
		t.Fatalf("expected default exchange binance, got %s", cfg.DefaultExchange)
	}
	if len(cfg.Exchanges) != 0 {
		t.Fatalf("expected no credentials, got %+v", cfg.Exchanges)
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Fatalf("expected optional stores to be unset: redis=%q db=%q", cfg.RedisURL, cfg.DatabaseURL)
	}
	if cfg.MarketCacheTTLSecs != 5 || !cfg.CandleSnapshots || cfg.ReadmePath != "README.md" {
		t.Fatalf("unexpected market defaults: %+v", cfg)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected default MCP transport stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP http defaults: %s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	}
	if cfg.MCPRequestTimeoutSecs != 15 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP defaults: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DIR", "/tmp/crypto-logs")
	t.Setenv("LOG_RETENTION_DAYS", "3")
	t.Setenv("DEFAULT_EXCHANGE", "BinanceUS")
	t.Setenv("MARKET_CACHE_TTL_SECS", "30")
	t.Setenv("CANDLE_SNAPSHOTS", "false")
	t.Setenv("MCP_TRANSPORT", "HTTP")
	t.Setenv("MCP_HTTP_ENABLED", "true")
	t.Setenv("MCP_HTTP_PORT", "9999")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "4")

	cfg := Load()
	if cfg.LogLevel != "debug" || cfg.LogDir != "/tmp/crypto-logs" || cfg.LogRetentionDays != 3 {
		t.Fatalf("unexpected log overrides: %+v", cfg)
	}
	if cfg.DefaultExchange != "binanceus" {
		t.Fatalf("expected binanceus, got %s", cfg.DefaultExchange)
	}
	if cfg.MarketCacheTTLSecs != 30 || cfg.CandleSnapshots {
		t.Fatalf("unexpected market overrides: ttl=%d snapshots=%v", cfg.MarketCacheTTLSecs, cfg.CandleSnapshots)
	}
	if cfg.MCPTransport != "http" || !cfg.MCPHTTPEnabled || cfg.MCPHTTPPort != 9999 || cfg.MCPRequestTimeoutSecs != 4 {
		t.Fatalf("unexpected MCP overrides: %+v", cfg)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_EXCHANGE", "mtgox")
	t.Setenv("MCP_TRANSPORT", "grpc")
	t.Setenv("MCP_HTTP_PORT", "-1")
	t.Setenv("LOG_RETENTION_DAYS", "abc")

	cfg := Load()
	if cfg.DefaultExchange != "binance" {
		t.Fatalf("expected fallback to binance, got %s", cfg.DefaultExchange)
	}
	if cfg.MCPTransport != "stdio" || cfg.MCPHTTPPort != 8090 || cfg.LogRetentionDays != 7 {
		t.Fatalf("unexpected fallbacks: %+v", cfg)
	}
}

func TestLoadExchangeCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_SECRET", "secret")
	t.Setenv("BINANCEUS_API_KEY", "us-key")
	t.Setenv("BINANCEUS_API_SECRET", "us-secret")

	cfg := Load()
	if got := cfg.Exchanges["binance"]; got.APIKey != "key" || got.Secret != "secret" {
		t.Fatalf("unexpected binance credentials: %+v", got)
	}
	if got := cfg.Exchanges["binanceus"]; got.Secret != "us-secret" {
		t.Fatalf("expected API_SECRET alias to be honoured, got %+v", got)
	}
	configured := cfg.ConfiguredExchanges()
	if len(configured) != 2 || configured[0] != "binance" || configured[1] != "binanceus" {
		t.Fatalf("unexpected configured exchanges: %v", configured)
	}
}

func TestLoadIgnoresWhitespaceCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("BINANCE_API_KEY", "   ")
	t.Setenv("BINANCE_SECRET", "secret")

	cfg := Load()
	if cfg.HasCredentials("binance") {
		t.Fatal("whitespace key should not count as configured")
	}
}

func TestLoadEnvFilesPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("LOG_LEVEL", "warning")
	os.Unsetenv("DEFAULT_EXCHANGE")
	os.Unsetenv("REDIS_URL")
	t.Cleanup(func() {
		os.Unsetenv("DEFAULT_EXCHANGE")
		os.Unsetenv("REDIS_URL")
	})

	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write(".env.local", "DEFAULT_EXCHANGE=binanceus\n")
	write(".env", "DEFAULT_EXCHANGE=binance\nREDIS_URL=localhost:6379\nLOG_LEVEL=debug\n")

	loaded, err := LoadEnvFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two files loaded, got %v", loaded)
	}
	if got := os.Getenv("DEFAULT_EXCHANGE"); got != "binanceus" {
		t.Fatalf("expected .env.local to win, got %s", got)
	}
	if got := os.Getenv("REDIS_URL"); got != "localhost:6379" {
		t.Fatalf("expected REDIS_URL from .env, got %s", got)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "warning" {
		t.Fatalf("process env must not be overridden, got %s", got)
	}
}

func TestLoadEnvFilesMissingDir(t *testing.T) {
	loaded, err := LoadEnvFiles(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing files should be skipped: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected nothing loaded, got %v", loaded)
	}
}
