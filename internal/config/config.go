package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"crypto-mcp/internal/domain"
)

type ExchangeCredentials struct {
	APIKey string
	Secret string
}

type Config struct {
	LogLevel         string
	LogDir           string
	LogRetentionDays int

	DefaultExchange string
	// Exchanges holds complete credential pairs keyed by exchange id.
	Exchanges map[string]ExchangeCredentials

	DatabaseURL        string
	RedisURL           string
	MarketCacheTTLSecs int
	CandleSnapshots    bool

	ReadmePath   string
	OTLPEndpoint string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		MCPAuthToken: os.Getenv("MCP_AUTH_TOKEN"),
		OTLPEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.LogDir = strings.TrimSpace(os.Getenv("LOG_DIR"))
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir()
	}

	cfg.LogRetentionDays = 7
	if v := strings.TrimSpace(os.Getenv("LOG_RETENTION_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LogRetentionDays = n
		}
	}

	cfg.DefaultExchange = strings.ToLower(strings.TrimSpace(os.Getenv("DEFAULT_EXCHANGE")))
	if cfg.DefaultExchange == "" {
		cfg.DefaultExchange = "binance"
	}
	if !domain.IsSupportedExchange(cfg.DefaultExchange) {
		log.Printf("Warning: unsupported DEFAULT_EXCHANGE=%q, defaulting to binance", cfg.DefaultExchange)
		cfg.DefaultExchange = "binance"
	}

	cfg.Exchanges = loadExchangeCredentials()
	if len(cfg.Exchanges) == 0 {
		log.Println("Warning: no exchange API credentials found, account tools will be unavailable")
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, candle archive disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, market cache disabled")
	}

	cfg.MarketCacheTTLSecs = 5
	if v := strings.TrimSpace(os.Getenv("MARKET_CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MarketCacheTTLSecs = n
		}
	}

	cfg.CandleSnapshots = true
	if v := strings.TrimSpace(os.Getenv("CANDLE_SNAPSHOTS")); v != "" {
		if strings.EqualFold(v, "false") {
			cfg.CandleSnapshots = false
		}
	}

	cfg.ReadmePath = strings.TrimSpace(os.Getenv("README_PATH"))
	if cfg.ReadmePath == "" {
		cfg.ReadmePath = "README.md"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 15
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	return cfg
}

// HasCredentials reports whether exchangeID has a complete key pair.
func (c *Config) HasCredentials(exchangeID string) bool {
	_, ok := c.Exchanges[strings.ToLower(exchangeID)]
	return ok
}

// ConfiguredExchanges returns the ids with credentials in supported order.
func (c *Config) ConfiguredExchanges() []string {
	var out []string
	for _, id := range domain.SupportedExchanges {
		if c.HasCredentials(id) {
			out = append(out, id)
		}
	}
	return out
}

// loadExchangeCredentials reads <ID>_API_KEY with <ID>_SECRET, falling back
// to <ID>_API_SECRET, for every supported exchange.
func loadExchangeCredentials() map[string]ExchangeCredentials {
	out := make(map[string]ExchangeCredentials)
	for _, id := range domain.SupportedExchanges {
		prefix := strings.ToUpper(id)
		key := strings.TrimSpace(os.Getenv(prefix + "_API_KEY"))
		secret := strings.TrimSpace(os.Getenv(prefix + "_SECRET"))
		if secret == "" {
			secret = strings.TrimSpace(os.Getenv(prefix + "_API_SECRET"))
		}
		if key == "" || secret == "" {
			continue
		}
		out[id] = ExchangeCredentials{APIKey: key, Secret: secret}
	}
	return out
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".crypto-mcp-server", "logs")
	}
	return filepath.Join(home, ".crypto-mcp-server", "logs")
}
