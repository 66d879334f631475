package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-mcp/internal/cache"
	"crypto-mcp/internal/config"
	"crypto-mcp/internal/db"
	"crypto-mcp/internal/exchange"
	"crypto-mcp/internal/handler"
	"crypto-mcp/internal/logging"
	mcpserver "crypto-mcp/internal/mcp"
	"crypto-mcp/internal/repository"
	"crypto-mcp/internal/service"
	"crypto-mcp/pkg/tracing"

	"github.com/gin-gonic/gin"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

const (
	serviceName         = "crypto-mcp"
	defaultMaxBodyBytes = int64(1 << 20)
	shutdownGracePeriod = 5 * time.Second
)

var (
	loadEnvFilesFunc     = config.LoadEnvFiles
	loadConfigFunc       = config.Load
	setupLoggingFunc     = logging.Setup
	initTracerFunc       = tracing.InitTracer
	newRedisFunc         = cache.NewRedis
	connectPostgresFunc  = db.Connect
	newSnapshotStoreFunc = repository.NewSnapshotStore
	newRegistryFunc      = exchange.NewRegistry
	newMCPServerFunc     = mcpserver.NewServer
	newMCPHandlerFunc    = mcpserver.NewHTTPTransportHandler
	newRouterFunc        = gin.New
	runStdioFunc         = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	if loaded, err := loadEnvFilesFunc("."); err != nil {
		log.Printf("Warning: %v", err)
	} else if len(loaded) > 0 {
		log.Printf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
	cfg := loadConfigFunc()

	logger, logFile, err := setupLoggingFunc(logging.Options{
		Level:         cfg.LogLevel,
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer provider", "err", err)
		}
	}()

	var marketCache service.MarketCache
	if cfg.RedisURL != "" {
		client, err := newRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, market cache disabled", "err", err)
		} else {
			defer client.Close()
			marketCache = cache.NewMarketCache(client, time.Duration(cfg.MarketCacheTTLSecs)*time.Second, logger)
			logger.Info("market cache enabled", "ttl_secs", cfg.MarketCacheTTLSecs)
		}
	}

	var sinks []service.CandleSink
	if cfg.DatabaseURL != "" {
		pool, err := connectPostgresFunc(ctx, cfg.DatabaseURL)
		switch {
		case err != nil:
			logger.Warn("postgres unavailable, candle archive disabled", "err", err)
		case pool != nil:
			defer pool.Close()
			candleRepo := repository.NewCandleRepository(pool, tracer)
			if err := candleRepo.RunMigrations(ctx); err != nil {
				logger.Error("candle migrations failed, candle archive disabled", "err", err)
			} else {
				sinks = append(sinks, candleRepo)
				logger.Info("candle archive enabled")
			}
		}
	}
	if cfg.CandleSnapshots {
		sinks = append(sinks, newSnapshotStoreFunc(cfg.LogDir))
		logger.Info("candle snapshots enabled", "dir", cfg.LogDir)
	}

	registry := newRegistryFunc(cfg, logger)
	logStartup(logger, cfg, registry)

	marketService := service.NewMarketService(tracer, registry, marketCache, logger, sinks...)
	accountService := service.NewAccountService(tracer, registry, logger)
	indicatorService := service.NewIndicatorService(tracer, marketService, logger)

	mcpSrv := newMCPServerFunc(tracer, mcpserver.Deps{
		Market:       marketService,
		Account:      accountService,
		Indicators:   indicatorService,
		Exchanges:    registry,
		Logs:         logging.NewReader(cfg.LogDir),
		ConfigReport: func() string { return config.Report(cfg) },
		ReadmePath:   cfg.ReadmePath,
		Logger:       logger,
	}, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	switch cfg.MCPTransport {
	case "", "stdio":
		logger.Info("starting mcp server", "transport", "stdio")
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv, registry); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

func logStartup(logger *slog.Logger, cfg *config.Config, registry *exchange.Registry) {
	logger.Info("supported exchanges", "exchanges", strings.Join(registry.Supported(), ", "))
	configured := registry.Available()
	if len(configured) == 0 {
		logger.Warn("no exchange API credentials configured")
	} else {
		logger.Info("configured exchanges", "exchanges", strings.Join(configured, ", "), "default", registry.DefaultID())
	}

	v := config.Validate(cfg)
	for _, w := range v.Warnings {
		if strings.TrimSpace(w) != "" {
			logger.Warn(w)
		}
	}
	for _, e := range v.Errors {
		logger.Error(e)
	}
	logger.Info(v.Summary)
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server, exchanges handler.ExchangeLister) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	mcpHandler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMaxBodyBytes,
	})

	r := newRouterFunc()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	h := handler.New(otel.Tracer(serviceName), exchanges, func() string { return config.Report(cfg) }, mcpHandler)
	h.RegisterRoutes(r)

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		slog.Info("starting mcp server", "transport", "http", "addr", addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp http server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	slog.Info("shutting down mcp server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
