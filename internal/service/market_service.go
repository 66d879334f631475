package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/exchange"
	"crypto-mcp/internal/symbol"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ExchangeResolver interface {
	Get(id string) (exchange.Exchange, error)
}

type MarketCache interface {
	Get(ctx context.Context, exchangeID, kind, key string, dst any) bool
	Set(ctx context.Context, exchangeID, kind, key string, value any)
}

// CandleSink receives every candle series fetched from an exchange.
type CandleSink interface {
	Archive(ctx context.Context, exchange string, candles []domain.Candle) error
}

type MarketService struct {
	tracer   trace.Tracer
	resolver ExchangeResolver
	cache    MarketCache
	sinks    []CandleSink
	logger   *slog.Logger
}

// NewMarketService builds the market data service. cache may be nil.
func NewMarketService(tracer trace.Tracer, resolver ExchangeResolver, cache MarketCache, logger *slog.Logger, sinks ...CandleSink) *MarketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketService{tracer: tracer, resolver: resolver, cache: cache, sinks: sinks, logger: logger}
}

func (s *MarketService) Prices(ctx context.Context, exchangeID, sym string) ([]domain.TickerPrice, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.prices")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("exchange", ex.ID()), attribute.String("symbol", sym))

	if sym == "" {
		return ex.Prices(ctx, "")
	}
	key := symbol.Unified(sym)
	var cached []domain.TickerPrice
	if s.cache != nil && s.cache.Get(ctx, ex.ID(), "price", key, &cached) {
		return cached, nil
	}
	prices, err := ex.Prices(ctx, sym)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, ex.ID(), "price", key, prices)
	}
	return prices, nil
}

func (s *MarketService) BookTickers(ctx context.Context, exchangeID, sym string) ([]domain.BookTicker, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.book-tickers")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.BookTickers(ctx, sym)
}

func (s *MarketService) Depth(ctx context.Context, exchangeID, sym string, limit int) (*domain.OrderBook, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.depth")
	defer span.End()

	if err := requireSymbol(sym); err != nil {
		return nil, err
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.OrderBook(ctx, sym, limit)
}

func (s *MarketService) DayStats(ctx context.Context, exchangeID, sym string) ([]domain.DayStats, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.day-stats")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	if sym == "" {
		return ex.DayStats(ctx, "")
	}
	key := symbol.Unified(sym)
	var cached []domain.DayStats
	if s.cache != nil && s.cache.Get(ctx, ex.ID(), "24hr", key, &cached) {
		return cached, nil
	}
	stats, err := ex.DayStats(ctx, sym)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, ex.ID(), "24hr", key, stats)
	}
	return stats, nil
}

// Candles fetches a candle series and hands fresh results to every sink.
// Sink failures are logged and never fail the call.
func (s *MarketService) Candles(ctx context.Context, exchangeID string, q domain.CandleQuery) ([]domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.candles")
	defer span.End()

	if err := requireSymbol(q.Symbol); err != nil {
		return nil, err
	}
	if !domain.IsSupportedInterval(q.Interval) {
		return nil, fmt.Errorf("unsupported interval %q, expected one of %s", q.Interval, strings.Join(domain.SupportedIntervals, ", "))
	}
	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	q.Symbol = symbol.Unified(q.Symbol)
	span.SetAttributes(
		attribute.String("exchange", ex.ID()),
		attribute.String("symbol", q.Symbol),
		attribute.String("interval", q.Interval),
	)

	var cached []domain.Candle
	if s.cache != nil && s.cache.Get(ctx, ex.ID(), "candles", q.CacheKey(), &cached) {
		return cached, nil
	}
	candles, err := ex.Candles(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, ex.ID(), "candles", q.CacheKey(), candles)
	}
	for _, sink := range s.sinks {
		if err := sink.Archive(ctx, ex.ID(), candles); err != nil {
			s.logger.Error("candle archive failed", "exchange", ex.ID(), "symbol", q.Symbol, "err", err)
		}
	}
	return candles, nil
}

func (s *MarketService) Markets(ctx context.Context, exchangeID string) ([]domain.Market, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.markets")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	return ex.Markets(ctx)
}

func (s *MarketService) FundingRates(ctx context.Context, exchangeID, sym string) ([]domain.FundingRate, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.funding-rates")
	defer span.End()

	ex, err := s.resolver.Get(exchangeID)
	if err != nil {
		return nil, err
	}
	d, ok := ex.(exchange.DerivativesReader)
	if !ok {
		return nil, fmt.Errorf("%s funding rates: %w", ex.ID(), exchange.ErrNotSupported)
	}
	return d.FundingRates(ctx, sym)
}

func requireSymbol(sym string) error {
	if strings.TrimSpace(sym) == "" {
		return fmt.Errorf("symbol is required")
	}
	return nil
}
