package service

import (
	"context"
	"errors"
	"fmt"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/exchange"
)

type stubExchange struct {
	id          string
	creds       bool
	prices      []domain.TickerPrice
	stats       []domain.DayStats
	candles     []domain.Candle
	candlesErr  error
	book        *domain.OrderBook
	funding     []domain.FundingRate
	positions   []domain.Position
	dust        []domain.DustLogEntry
	order       *domain.Order
	calls       map[string]int
	lastQuery   domain.CandleQuery
	lastOrder   domain.OrderRequest
	lastSymbol  string
	lastOrderID string
}

func newStubExchange(id string) *stubExchange {
	return &stubExchange{id: id, creds: true, calls: map[string]int{}}
}

func (s *stubExchange) ID() string           { return s.id }
func (s *stubExchange) Name() string         { return s.id }
func (s *stubExchange) HasCredentials() bool { return s.creds }

func (s *stubExchange) Prices(ctx context.Context, sym string) ([]domain.TickerPrice, error) {
	s.calls["prices"]++
	s.lastSymbol = sym
	return s.prices, nil
}

func (s *stubExchange) BookTickers(ctx context.Context, sym string) ([]domain.BookTicker, error) {
	s.calls["bookTickers"]++
	return []domain.BookTicker{{Symbol: "BTC/USDT", BidPrice: 1, AskPrice: 2}}, nil
}

func (s *stubExchange) DayStats(ctx context.Context, sym string) ([]domain.DayStats, error) {
	s.calls["dayStats"]++
	return s.stats, nil
}

func (s *stubExchange) OrderBook(ctx context.Context, sym string, limit int) (*domain.OrderBook, error) {
	s.calls["orderBook"]++
	return s.book, nil
}

func (s *stubExchange) Candles(ctx context.Context, q domain.CandleQuery) ([]domain.Candle, error) {
	s.calls["candles"]++
	s.lastQuery = q
	return s.candles, s.candlesErr
}

func (s *stubExchange) Markets(ctx context.Context) ([]domain.Market, error) {
	s.calls["markets"]++
	return []domain.Market{{Symbol: "BTC/USDT", ID: "BTCUSDT", Base: "BTC", Quote: "USDT", Active: true}}, nil
}

func (s *stubExchange) Balance(ctx context.Context) (*domain.Balance, error) {
	s.calls["balance"]++
	if !s.creds {
		return nil, fmt.Errorf("%s %w", s.id, exchange.ErrCredentialsRequired)
	}
	return &domain.Balance{Assets: []domain.BalanceAsset{{Asset: "BTC", Free: 1, Total: 1}}}, nil
}

func (s *stubExchange) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	s.calls["createOrder"]++
	s.lastOrder = req
	if s.order != nil {
		return s.order, nil
	}
	return &domain.Order{OrderID: "1", Symbol: req.Symbol, Status: "open", Type: string(req.Type), Side: string(req.Side)}, nil
}

func (s *stubExchange) Order(ctx context.Context, sym, orderID string) (*domain.Order, error) {
	s.calls["order"]++
	s.lastOrderID = orderID
	return &domain.Order{OrderID: orderID, Symbol: sym, Status: "open"}, nil
}

func (s *stubExchange) Orders(ctx context.Context, sym string) ([]domain.Order, error) {
	s.calls["orders"]++
	return []domain.Order{{OrderID: "1", Symbol: sym}}, nil
}

func (s *stubExchange) OpenOrders(ctx context.Context, sym string) ([]domain.Order, error) {
	s.calls["openOrders"]++
	s.lastSymbol = sym
	return nil, nil
}

func (s *stubExchange) CancelOrder(ctx context.Context, sym, orderID string) (*domain.CancelResult, error) {
	s.calls["cancel"]++
	return &domain.CancelResult{OrderID: orderID, Symbol: sym, Status: "canceled"}, nil
}

func (s *stubExchange) CancelAllOrders(ctx context.Context, sym string) ([]domain.CancelResult, error) {
	s.calls["cancelAll"]++
	return []domain.CancelResult{{OrderID: "1", Symbol: sym, Status: "canceled"}}, nil
}

func (s *stubExchange) MyTrades(ctx context.Context, sym string, limit int) ([]domain.Trade, error) {
	s.calls["trades"]++
	return []domain.Trade{{ID: "t1", Symbol: sym}}, nil
}

// stubDerivativesExchange adds futures and dust capabilities.
type stubDerivativesExchange struct {
	*stubExchange
}

func (s stubDerivativesExchange) Positions(ctx context.Context) ([]domain.Position, error) {
	s.calls["positions"]++
	return s.positions, nil
}

func (s stubDerivativesExchange) FundingRates(ctx context.Context, sym string) ([]domain.FundingRate, error) {
	s.calls["funding"]++
	return s.funding, nil
}

func (s stubDerivativesExchange) DustLog(ctx context.Context) ([]domain.DustLogEntry, error) {
	s.calls["dust"]++
	return s.dust, nil
}

type stubResolver map[string]exchange.Exchange

func (r stubResolver) Get(id string) (exchange.Exchange, error) {
	if id == "" {
		id = "binance"
	}
	ex, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", exchange.ErrUnsupportedExchange, id)
	}
	return ex, nil
}

type memoryCache struct {
	values map[string]any
	sets   int
}

func newMemoryCache() *memoryCache { return &memoryCache{values: map[string]any{}} }

func (c *memoryCache) Get(ctx context.Context, exchangeID, kind, key string, dst any) bool {
	v, ok := c.values[exchangeID+":"+kind+":"+key]
	if !ok {
		return false
	}
	switch d := dst.(type) {
	case *[]domain.TickerPrice:
		*d = v.([]domain.TickerPrice)
	case *[]domain.DayStats:
		*d = v.([]domain.DayStats)
	case *[]domain.Candle:
		*d = v.([]domain.Candle)
	default:
		return false
	}
	return true
}

func (c *memoryCache) Set(ctx context.Context, exchangeID, kind, key string, value any) {
	c.sets++
	c.values[exchangeID+":"+kind+":"+key] = value
}

type recordingSink struct {
	archived [][]domain.Candle
	err      error
}

func (s *recordingSink) Archive(ctx context.Context, exchange string, candles []domain.Candle) error {
	s.archived = append(s.archived, candles)
	return s.err
}

var errSinkDown = errors.New("sink down")
