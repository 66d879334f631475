package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/logging"
	"crypto-mcp/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var errExchangeDown = errors.New("exchange unavailable")

type stubMarket struct {
	prices  []domain.TickerPrice
	book    *domain.OrderBook
	candles []domain.Candle
	markets []domain.Market
	err     error

	lastExchange string
	lastSymbol   string
	lastQuery    domain.CandleQuery
	lastLimit    int
}

func (s *stubMarket) Prices(ctx context.Context, exchangeID, symbol string) ([]domain.TickerPrice, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	if symbol == "" {
		return s.prices, nil
	}
	for _, p := range s.prices {
		if p.Symbol == symbol {
			return []domain.TickerPrice{p}, nil
		}
	}
	return nil, nil
}

func (s *stubMarket) BookTickers(ctx context.Context, exchangeID, symbol string) ([]domain.BookTicker, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	return []domain.BookTicker{{Symbol: "BTC/USDT", BidPrice: 49999, BidQty: 1.5, AskPrice: 50001, AskQty: 2, Timestamp: 1700000000000}}, nil
}

func (s *stubMarket) Depth(ctx context.Context, exchangeID, symbol string, limit int) (*domain.OrderBook, error) {
	s.lastExchange, s.lastSymbol, s.lastLimit = exchangeID, symbol, limit
	if s.err != nil {
		return nil, s.err
	}
	return s.book, nil
}

func (s *stubMarket) DayStats(ctx context.Context, exchangeID, symbol string) ([]domain.DayStats, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	stats := []domain.DayStats{
		{Symbol: "BTC/USDT", LastPrice: 50000, PriceChangePercent: 2.5},
		{Symbol: "ETH/USDT", LastPrice: 3000, PriceChangePercent: -1},
	}
	if symbol == "" {
		return stats, nil
	}
	return stats[:1], nil
}

func (s *stubMarket) Candles(ctx context.Context, exchangeID string, q domain.CandleQuery) ([]domain.Candle, error) {
	s.lastExchange, s.lastQuery = exchangeID, q
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func (s *stubMarket) Markets(ctx context.Context, exchangeID string) ([]domain.Market, error) {
	s.lastExchange = exchangeID
	if s.err != nil {
		return nil, s.err
	}
	return s.markets, nil
}

func (s *stubMarket) FundingRates(ctx context.Context, exchangeID, symbol string) ([]domain.FundingRate, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	return []domain.FundingRate{{Symbol: "BTC/USDT:USDT", MarkPrice: 50010, FundingRate: 0.0001, NextFundingTime: 1700003600000, Timestamp: 1700000000000}}, nil
}

type placedOrder struct {
	side     string
	symbol   string
	quantity float64
	price    float64
	opts     service.OrderOptions
}

type stubAccount struct {
	orders []domain.Order
	trades []domain.Trade
	err    error

	lastExchange string
	lastSymbol   string
	lastOrderID  string
	lastLimit    int
	placed       []placedOrder
}

func (s *stubAccount) Balance(ctx context.Context, exchangeID string) (*domain.Balance, error) {
	s.lastExchange = exchangeID
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Balance{Assets: []domain.BalanceAsset{
		{Asset: "BTC", Free: 0.5, Used: 0.1, Total: 0.6},
		{Asset: "USDT", Free: 1000, Total: 1000},
	}}, nil
}

func (s *stubAccount) DustLog(ctx context.Context, exchangeID string) ([]domain.DustLogEntry, error) {
	s.lastExchange = exchangeID
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func (s *stubAccount) Positions(ctx context.Context, exchangeID string) ([]domain.Position, error) {
	s.lastExchange = exchangeID
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Position{{Symbol: "BTC/USDT:USDT", Side: "long", Amount: 0.01, EntryPrice: 48000, MarkPrice: 50000, Leverage: 10, MarginType: "cross"}}, nil
}

func (s *stubAccount) record(side, symbol string, quantity, price float64, opts service.OrderOptions) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.placed = append(s.placed, placedOrder{side: side, symbol: symbol, quantity: quantity, price: price, opts: opts})
	return &domain.Order{OrderID: "42", Symbol: symbol, Status: "open", Side: side, Amount: quantity, Price: price}, nil
}

func (s *stubAccount) Buy(ctx context.Context, exchangeID, symbol string, quantity, price float64, opts service.OrderOptions) (*domain.Order, error) {
	s.lastExchange = exchangeID
	return s.record("buy", symbol, quantity, price, opts)
}

func (s *stubAccount) Sell(ctx context.Context, exchangeID, symbol string, quantity, price float64, opts service.OrderOptions) (*domain.Order, error) {
	s.lastExchange = exchangeID
	return s.record("sell", symbol, quantity, price, opts)
}

func (s *stubAccount) MarketBuy(ctx context.Context, exchangeID, symbol string, quantity float64) (*domain.Order, error) {
	s.lastExchange = exchangeID
	return s.record("buy", symbol, quantity, 0, service.OrderOptions{Type: "MARKET"})
}

func (s *stubAccount) MarketSell(ctx context.Context, exchangeID, symbol string, quantity float64) (*domain.Order, error) {
	s.lastExchange = exchangeID
	return s.record("sell", symbol, quantity, 0, service.OrderOptions{Type: "MARKET"})
}

func (s *stubAccount) OrderStatus(ctx context.Context, exchangeID, symbol, orderID string) (*domain.Order, error) {
	s.lastExchange, s.lastSymbol, s.lastOrderID = exchangeID, symbol, orderID
	if s.err != nil {
		return nil, s.err
	}
	for _, o := range s.orders {
		if o.OrderID == orderID {
			return &o, nil
		}
	}
	return nil, errors.New("order not found")
}

func (s *stubAccount) AllOrders(ctx context.Context, exchangeID, symbol string) ([]domain.Order, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

func (s *stubAccount) OpenOrders(ctx context.Context, exchangeID, symbol string) ([]domain.Order, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

func (s *stubAccount) Cancel(ctx context.Context, exchangeID, symbol, orderID string) (*domain.CancelResult, error) {
	s.lastExchange, s.lastSymbol, s.lastOrderID = exchangeID, symbol, orderID
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CancelResult{OrderID: orderID, Symbol: symbol, Status: "canceled"}, nil
}

func (s *stubAccount) CancelAll(ctx context.Context, exchangeID, symbol string) ([]domain.CancelResult, error) {
	s.lastExchange, s.lastSymbol = exchangeID, symbol
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func (s *stubAccount) Trades(ctx context.Context, exchangeID, symbol string, limit int) ([]domain.Trade, error) {
	s.lastExchange, s.lastSymbol, s.lastLimit = exchangeID, symbol, limit
	if s.err != nil {
		return nil, s.err
	}
	return s.trades, nil
}

type stubIndicators struct {
	last service.IndicatorRequest
}

func (s *stubIndicators) Calculate(ctx context.Context, req service.IndicatorRequest) (map[string]any, error) {
	s.last = req
	out := map[string]any{}
	for _, name := range req.Indicators {
		out[name] = []float64{1, 2, 3}
	}
	return out, nil
}

type stubDirectory struct{}

func (stubDirectory) Statuses() []domain.ExchangeStatus {
	return []domain.ExchangeStatus{
		{ID: "binance", Name: "Binance", Ready: true},
		{ID: "binanceus", Name: "Binance US", Error: "Missing API key/secret"},
	}
}

func (stubDirectory) Available() []string { return []string{"binance"} }
func (stubDirectory) DefaultID() string   { return "binance" }

type testDeps struct {
	market     *stubMarket
	account    *stubAccount
	indicators *stubIndicators
	logDir     string
	readme     string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T) (*sdkmcp.Server, *testDeps) {
	t.Helper()
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	today := time.Now().Format("2006-01-02")
	logBody := strings.Join([]string{
		"time=" + today + " level=INFO msg=\"server started\"",
		"time=" + today + " level=ERROR msg=\"binance prices: timeout\"",
		"time=" + today + " level=WARN msg=\"No exchange specified\"",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(logDir, today+".log"), []byte(logBody), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Crypto MCP Server\n"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}

	deps := &testDeps{
		market: &stubMarket{
			prices: []domain.TickerPrice{
				{Symbol: "BTC/USDT", Price: 50000, Timestamp: 1700000000000},
				{Symbol: "ETH/USDT", Price: 3000, Timestamp: 1700000000000},
			},
			book: &domain.OrderBook{Symbol: "BTC/USDT", Bids: levels(12, 50000, -1), Asks: levels(12, 50001, 1)},
			candles: []domain.Candle{
				{OpenTime: 1700000000000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
			},
			markets: []domain.Market{{Symbol: "BTC/USDT", ID: "BTCUSDT", Base: "BTC", Quote: "USDT", Active: true}},
		},
		account: &stubAccount{
			orders: []domain.Order{{OrderID: "42", Symbol: "BTC/USDT", Status: "open", Type: "limit", Side: "buy", Price: 45000, Amount: 0.01, Remaining: 0.01, Timestamp: 1700000000000}},
			trades: []domain.Trade{{ID: "7", OrderID: "42", Symbol: "BTC/USDT", Side: "buy", Price: 45000, Amount: 0.01, Cost: 450, Fee: &domain.Fee{Cost: 0.45, Currency: "USDT"}, Timestamp: 1700000000000}},
		},
		indicators: &stubIndicators{},
		logDir:     logDir,
		readme:     readme,
	}

	srv := NewServer(nil, Deps{
		Market:       deps.market,
		Account:      deps.account,
		Indicators:   deps.indicators,
		Exchanges:    stubDirectory{},
		Logs:         logging.NewReader(logDir),
		ConfigReport: func() string { return "Configuration report\nDefault exchange: binance" },
		ReadmePath:   readme,
		Logger:       quietLogger(),
	}, ServerConfig{RequestTimeout: time.Second})
	return srv, deps
}

func levels(n int, start, step float64) []domain.Level {
	out := make([]domain.Level, n)
	for i := range out {
		out[i] = domain.Level{start + float64(i)*step, 1}
	}
	return out
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func connectTestServer(t *testing.T) (context.Context, *sdkmcp.ClientSession, *testDeps) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	srv, deps := testServer(t)
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		shutdown()
	})
	return ctx, session, deps
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s failed: %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("expected content")
	}
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
