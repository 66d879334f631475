package config

import (
	"fmt"
	"slices"
	"strings"

	"crypto-mcp/internal/domain"
)

// LogLevels lists the accepted LOG_LEVEL names.
var LogLevels = []string{"emerg", "alert", "crit", "error", "warning", "warn", "notice", "info", "debug"}

type Validation struct {
	IsValid        bool
	HasCredentials bool
	Warnings       []string
	Errors         []string
	Summary        string
}

// Validate checks the loaded configuration for missing credentials, an
// unknown log level and transport settings that would stop the server from
// starting.
func Validate(cfg *Config) Validation {
	v := Validation{HasCredentials: len(cfg.Exchanges) > 0}

	if cfg.MCPTransport == "http" {
		if !cfg.MCPHTTPEnabled {
			v.Errors = append(v.Errors, "MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
		}
		if strings.TrimSpace(cfg.MCPAuthToken) == "" {
			v.Errors = append(v.Errors, "MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
		}
	}

	if cfg.LogLevel != "" && !slices.Contains(LogLevels, cfg.LogLevel) {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"Unknown LOG_LEVEL %q, using info (valid: %s)", cfg.LogLevel, strings.Join(LogLevels, ", ")))
	}

	if !v.HasCredentials {
		prefix := strings.ToUpper(cfg.DefaultExchange)
		v.Warnings = append(v.Warnings,
			"🔑 Exchange API credentials are not configured",
			"📝 Some features requiring authentication will not work:",
			"   • Account balance queries",
			"   • Order placement and cancellation",
			"   • Open orders retrieval",
			"   • Trade history",
			"   • Position data (for futures)",
			"",
			"💡 To configure API credentials:",
			"   1. Create a .env file in the project root",
			"   2. Add the following lines:",
			fmt.Sprintf("      %s_API_KEY=your_api_key_here", prefix),
			fmt.Sprintf("      %s_SECRET=your_api_secret_here", prefix),
			"   3. Restart the MCP server",
			"",
			"🔒 Note: API keys are only required for account-specific operations.",
			"    Market data queries (prices, klines, indicators) work without API keys.",
		)
	} else if !cfg.HasCredentials(cfg.DefaultExchange) {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"Default exchange %s has no API credentials; pass exchange explicitly for account tools (configured: %s)",
			cfg.DefaultExchange, strings.Join(cfg.ConfiguredExchanges(), ", ")))
	}

	v.IsValid = len(v.Errors) == 0
	switch {
	case len(v.Errors) > 0:
		v.Summary = "❌ Configuration has errors that prevent proper operation"
	case len(v.Warnings) > 0 && v.HasCredentials:
		v.Summary = "⚠️  Configuration has minor warnings but API credentials are configured"
	case len(v.Warnings) > 0:
		v.Summary = "⚠️  Limited functionality - API credentials not configured"
	default:
		v.Summary = "✅ All environment variables are properly configured"
	}
	return v
}

// Report renders a human readable configuration status.
func Report(cfg *Config) string {
	v := Validate(cfg)
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("🔧 Crypto MCP Server Configuration Status")
	line("%s", strings.Repeat("=", 50))
	line("")
	line("📊 Overall Status: %s", v.Summary)
	line("")

	line("🔑 API Credentials:")
	for _, id := range domain.SupportedExchanges {
		name := domain.ExchangeNames[id]
		if cfg.HasCredentials(id) {
			line("   ✅ %s API Key/Secret: Configured", name)
		} else {
			line("   ❌ %s API Key/Secret: Not configured", name)
		}
	}
	if v.HasCredentials {
		line("   🔓 Account-specific operations: Available")
	} else {
		line("   🔒 Account-specific operations: Unavailable")
	}
	line("")

	line("🚀 Available Features:")
	line("   ✅ Market data queries (prices, klines)")
	line("   ✅ Technical indicators")
	line("   ✅ Order book data")
	line("   ✅ Funding rates (futures)")
	if v.HasCredentials {
		line("   ✅ Account balance")
		line("   ✅ Order placement and cancellation")
		line("   ✅ Open orders and trade history")
		line("   ✅ Position data (futures)")
	} else {
		line("   ❌ Account balance (requires API key)")
		line("   ❌ Order placement and cancellation (requires API key)")
		line("   ❌ Open orders and trade history (requires API key)")
		line("   ❌ Position data (requires API key)")
	}
	line("   %s Market cache (REDIS_URL)", mark(cfg.RedisURL != ""))
	line("   %s Candle archive (DATABASE_URL)", mark(cfg.DatabaseURL != ""))
	line("   %s Candle snapshots (%s)", mark(cfg.CandleSnapshots), cfg.LogDir)
	line("")

	if len(v.Errors) > 0 {
		line("❌ Configuration Errors:")
		for _, e := range v.Errors {
			line("   %s", e)
		}
		line("")
	}

	if len(v.Warnings) > 0 {
		line("⚠️  Configuration Warnings:")
		for _, w := range v.Warnings {
			line("   %s", w)
		}
		line("")
	}

	if !v.HasCredentials {
		prefix := strings.ToUpper(cfg.DefaultExchange)
		line("📚 Quick Setup Guide:")
		line("   1. Open the API management page of your exchange account")
		line("   2. Create a new API key with \"Read\" permissions (add \"Trade\" to place orders)")
		line("   3. Copy the API Key and Secret Key")
		line("   4. Create a .env file in your project root:")
		line("      %s_API_KEY=your_api_key_here", prefix)
		line("      %s_SECRET=your_secret_key_here", prefix)
		line("   5. Restart the MCP server")
		line("")
		line("🛡️  Security Note: Never share your API keys publicly!")
	}

	return strings.TrimRight(b.String(), "\n")
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
