package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServerName    = "Crypto MCP Server"
	ServerVersion = "1.0.0"

	defaultRequestTimeout = 30 * time.Second
)

const instructions = "Use these tools to query exchange market data, compute technical indicators, " +
	"manage orders and balances, and inspect server logs. Every tool accepts an optional exchange id; " +
	"the configured default exchange is used when it is omitted."

type ServerConfig struct {
	RequestTimeout time.Duration
}

// Deps groups the collaborators behind the tools, resources and prompts.
// Exchanges, Logs and ConfigReport may be nil.
type Deps struct {
	Market       MarketReader
	Account      AccountManager
	Indicators   IndicatorCalculator
	Exchanges    ExchangeDirectory
	Logs         LogReader
	ConfigReport func() string
	ReadmePath   string
	Logger       *slog.Logger
}

func NewServer(tracer trace.Tracer, deps Deps, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: instructions,
		Logger:       logger,
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	tools := &toolset{
		market:     deps.Market,
		account:    deps.Account,
		indicators: deps.Indicators,
		exchanges:  deps.Exchanges,
		logs:       deps.Logs,
		logger:     logger,
	}
	registerMarketTools(srv, tools)
	registerAccountTools(srv, tools)
	registerSystemTools(srv, tools)
	registerResources(srv, resourceDeps{
		market:       deps.Market,
		exchanges:    deps.Exchanges,
		configReport: deps.ConfigReport,
		readmePath:   deps.ReadmePath,
	})
	registerPrompts(srv, logger)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, mcpSpanName(method, req))
			span.SetAttributes(attribute.String("mcp.method", method))
			defer span.End()

			switch r := req.(type) {
			case *sdkmcp.CallToolRequest:
				span.SetAttributes(attribute.String("mcp.tool", strings.TrimSpace(r.Params.Name)))
			case *sdkmcp.ReadResourceRequest:
				span.SetAttributes(attribute.String("mcp.resource.uri", strings.TrimSpace(r.Params.URI)))
			case *sdkmcp.GetPromptRequest:
				span.SetAttributes(attribute.String("mcp.prompt", strings.TrimSpace(r.Params.Name)))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
			}
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil && res.IsError {
				span.SetAttributes(attribute.Bool("mcp.tool.error", true))
			}
			return result, err
		}
	}
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	switch method {
	case "tools/call":
		if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
			if name := strings.TrimSpace(callReq.Params.Name); name != "" {
				return "mcp.tool." + strings.ReplaceAll(name, "/", ".")
			}
		}
		return "mcp.tool.call"
	case "resources/read":
		return "mcp.resource.read"
	case "prompts/get":
		if promptReq, ok := req.(*sdkmcp.GetPromptRequest); ok {
			if name := strings.TrimSpace(promptReq.Params.Name); name != "" {
				return "mcp.prompt." + name
			}
		}
		return "mcp.prompt.get"
	default:
		return "mcp." + strings.ReplaceAll(method, "/", ".")
	}
}
