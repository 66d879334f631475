package mcp

import (
	"context"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/logging"
	"crypto-mcp/internal/service"
)

// MarketReader exposes exchange market data.
type MarketReader interface {
	Prices(ctx context.Context, exchangeID, symbol string) ([]domain.TickerPrice, error)
	BookTickers(ctx context.Context, exchangeID, symbol string) ([]domain.BookTicker, error)
	Depth(ctx context.Context, exchangeID, symbol string, limit int) (*domain.OrderBook, error)
	DayStats(ctx context.Context, exchangeID, symbol string) ([]domain.DayStats, error)
	Candles(ctx context.Context, exchangeID string, q domain.CandleQuery) ([]domain.Candle, error)
	Markets(ctx context.Context, exchangeID string) ([]domain.Market, error)
	FundingRates(ctx context.Context, exchangeID, symbol string) ([]domain.FundingRate, error)
}

// AccountManager exposes authenticated account and order operations.
type AccountManager interface {
	Balance(ctx context.Context, exchangeID string) (*domain.Balance, error)
	DustLog(ctx context.Context, exchangeID string) ([]domain.DustLogEntry, error)
	Positions(ctx context.Context, exchangeID string) ([]domain.Position, error)
	Buy(ctx context.Context, exchangeID, symbol string, quantity, price float64, opts service.OrderOptions) (*domain.Order, error)
	Sell(ctx context.Context, exchangeID, symbol string, quantity, price float64, opts service.OrderOptions) (*domain.Order, error)
	MarketBuy(ctx context.Context, exchangeID, symbol string, quantity float64) (*domain.Order, error)
	MarketSell(ctx context.Context, exchangeID, symbol string, quantity float64) (*domain.Order, error)
	OrderStatus(ctx context.Context, exchangeID, symbol, orderID string) (*domain.Order, error)
	AllOrders(ctx context.Context, exchangeID, symbol string) ([]domain.Order, error)
	OpenOrders(ctx context.Context, exchangeID, symbol string) ([]domain.Order, error)
	Cancel(ctx context.Context, exchangeID, symbol, orderID string) (*domain.CancelResult, error)
	CancelAll(ctx context.Context, exchangeID, symbol string) ([]domain.CancelResult, error)
	Trades(ctx context.Context, exchangeID, symbol string, limit int) ([]domain.Trade, error)
}

type IndicatorCalculator interface {
	Calculate(ctx context.Context, req service.IndicatorRequest) (map[string]any, error)
}

// ExchangeDirectory reports which exchanges are supported and configured.
type ExchangeDirectory interface {
	Statuses() []domain.ExchangeStatus
	Available() []string
	DefaultID() string
}

type LogReader interface {
	Read(q logging.Query) (*logging.Result, error)
}
