// Package exchange connects to crypto exchanges. Every method takes and
// returns unified BASE/QUOTE symbols; adapters translate to native ids.
package exchange

import (
	"context"
	"errors"

	"crypto-mcp/internal/domain"
)

var (
	ErrCredentialsRequired = errors.New("requires API credentials")
	ErrUnsupportedExchange = errors.New("unsupported exchange")
	ErrNotSupported        = errors.New("operation not supported by exchange")
)

type MarketData interface {
	// Prices, BookTickers and DayStats return every symbol when symbol is empty.
	Prices(ctx context.Context, symbol string) ([]domain.TickerPrice, error)
	BookTickers(ctx context.Context, symbol string) ([]domain.BookTicker, error)
	DayStats(ctx context.Context, symbol string) ([]domain.DayStats, error)
	OrderBook(ctx context.Context, symbol string, limit int) (*domain.OrderBook, error)
	Candles(ctx context.Context, q domain.CandleQuery) ([]domain.Candle, error)
	Markets(ctx context.Context) ([]domain.Market, error)
}

type Trading interface {
	Balance(ctx context.Context) (*domain.Balance, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	Order(ctx context.Context, symbol, orderID string) (*domain.Order, error)
	Orders(ctx context.Context, symbol string) ([]domain.Order, error)
	// OpenOrders returns open orders across all symbols when symbol is empty.
	OpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (*domain.CancelResult, error)
	CancelAllOrders(ctx context.Context, symbol string) ([]domain.CancelResult, error)
	MyTrades(ctx context.Context, symbol string, limit int) ([]domain.Trade, error)
}

type Exchange interface {
	ID() string
	Name() string
	HasCredentials() bool
	MarketData
	Trading
}

// DustLogger is implemented by exchanges that convert small balances.
type DustLogger interface {
	DustLog(ctx context.Context) ([]domain.DustLogEntry, error)
}

// DerivativesReader is implemented by exchanges with a perpetual futures venue.
type DerivativesReader interface {
	Positions(ctx context.Context) ([]domain.Position, error)
	FundingRates(ctx context.Context, symbol string) ([]domain.FundingRate, error)
}
