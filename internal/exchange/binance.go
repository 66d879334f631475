package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/symbol"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	binanceUSBaseURL   = "https://api.binance.us"
	defaultDepthLimit  = 100
	defaultCandleLimit = 500
)

type BinanceOptions struct {
	ID     string
	APIKey string
	Secret string
	// BaseURL and FuturesBaseURL override the REST endpoints.
	BaseURL        string
	FuturesBaseURL string
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Binance adapts the spot REST API, plus USD-M futures for the global venue.
type Binance struct {
	id       string
	name     string
	hasCreds bool
	client   *binance.Client
	futures  *futures.Client
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	markets map[string]domain.Market
}

func NewBinance(opts BinanceOptions) *Binance {
	id := strings.ToLower(strings.TrimSpace(opts.ID))
	if id == "" {
		id = "binance"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := binance.NewClient(opts.APIKey, opts.Secret)
	if id == "binanceus" {
		client.BaseURL = binanceUSBaseURL
	}
	if opts.BaseURL != "" {
		client.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		client.HTTPClient = opts.HTTPClient
	}

	b := &Binance{
		id:       id,
		name:     domain.ExchangeNames[id],
		hasCreds: strings.TrimSpace(opts.APIKey) != "" && strings.TrimSpace(opts.Secret) != "",
		client:   client,
		logger:   logger.With("exchange", id),
		now:      time.Now,
	}
	if b.name == "" {
		b.name = id
	}

	// Binance US has no futures venue.
	if id == "binance" {
		fc := binance.NewFuturesClient(opts.APIKey, opts.Secret)
		if opts.FuturesBaseURL != "" {
			fc.BaseURL = opts.FuturesBaseURL
		}
		if opts.HTTPClient != nil {
			fc.HTTPClient = opts.HTTPClient
		}
		b.futures = fc
	}
	return b
}

func (b *Binance) ID() string           { return b.id }
func (b *Binance) Name() string         { return b.name }
func (b *Binance) HasCredentials() bool { return b.hasCreds }

func (b *Binance) native(sym string) string {
	return symbol.Adapt(sym, b.id)
}

// unified maps a native market id back to BASE/QUOTE, preferring the
// exchange's own market list when it has been loaded.
func (b *Binance) unified(native string) string {
	b.mu.Lock()
	m, ok := b.markets[native]
	b.mu.Unlock()
	if ok {
		return m.Symbol
	}
	return symbol.Unified(native)
}

func (b *Binance) requireCredentials() error {
	if !b.hasCreds {
		return fmt.Errorf("%s %w", b.id, ErrCredentialsRequired)
	}
	return nil
}

func (b *Binance) wrap(op string, err error) error {
	return fmt.Errorf("%s %s: %w", b.id, op, err)
}

func (b *Binance) Prices(ctx context.Context, sym string) ([]domain.TickerPrice, error) {
	svc := b.client.NewListPricesService()
	if sym != "" {
		svc = svc.Symbol(b.native(sym))
	} else {
		b.loadMarkets(ctx)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("prices", err)
	}
	ts := b.now().UnixMilli()
	out := make([]domain.TickerPrice, 0, len(res))
	for _, p := range res {
		out = append(out, domain.TickerPrice{Symbol: b.unified(p.Symbol), Price: num(p.Price), Timestamp: ts})
	}
	return out, nil
}

func (b *Binance) BookTickers(ctx context.Context, sym string) ([]domain.BookTicker, error) {
	svc := b.client.NewListBookTickersService()
	if sym != "" {
		svc = svc.Symbol(b.native(sym))
	} else {
		b.loadMarkets(ctx)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("book tickers", err)
	}
	ts := b.now().UnixMilli()
	out := make([]domain.BookTicker, 0, len(res))
	for _, t := range res {
		out = append(out, domain.BookTicker{
			Symbol:    b.unified(t.Symbol),
			BidPrice:  num(t.BidPrice),
			BidQty:    num(t.BidQuantity),
			AskPrice:  num(t.AskPrice),
			AskQty:    num(t.AskQuantity),
			Timestamp: ts,
		})
	}
	return out, nil
}

func (b *Binance) DayStats(ctx context.Context, sym string) ([]domain.DayStats, error) {
	svc := b.client.NewListPriceChangeStatsService()
	if sym != "" {
		svc = svc.Symbol(b.native(sym))
	} else {
		b.loadMarkets(ctx)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("24hr stats", err)
	}
	out := make([]domain.DayStats, 0, len(res))
	for _, s := range res {
		out = append(out, domain.DayStats{
			Symbol:             b.unified(s.Symbol),
			PriceChange:        num(s.PriceChange),
			PriceChangePercent: num(s.PriceChangePercent),
			WeightedAvgPrice:   num(s.WeightedAvgPrice),
			PrevClosePrice:     num(s.PrevClosePrice),
			LastPrice:          num(s.LastPrice),
			LastQty:            num(s.LastQty),
			BidPrice:           num(s.BidPrice),
			AskPrice:           num(s.AskPrice),
			OpenPrice:          num(s.OpenPrice),
			HighPrice:          num(s.HighPrice),
			LowPrice:           num(s.LowPrice),
			Volume:             num(s.Volume),
			QuoteVolume:        num(s.QuoteVolume),
			OpenTime:           s.OpenTime,
			CloseTime:          s.CloseTime,
			Count:              s.Count,
		})
	}
	return out, nil
}

func (b *Binance) OrderBook(ctx context.Context, sym string, limit int) (*domain.OrderBook, error) {
	if limit <= 0 {
		limit = defaultDepthLimit
	}
	res, err := b.client.NewDepthService().Symbol(b.native(sym)).Limit(limit).Do(ctx)
	if err != nil {
		return nil, b.wrap("depth", err)
	}
	book := &domain.OrderBook{
		Symbol:    symbol.Unified(sym),
		Bids:      make([]domain.Level, 0, len(res.Bids)),
		Asks:      make([]domain.Level, 0, len(res.Asks)),
		Timestamp: b.now().UnixMilli(),
	}
	for _, lvl := range res.Bids {
		book.Bids = append(book.Bids, domain.Level{num(lvl.Price), num(lvl.Quantity)})
	}
	for _, lvl := range res.Asks {
		book.Asks = append(book.Asks, domain.Level{num(lvl.Price), num(lvl.Quantity)})
	}
	return book, nil
}

func (b *Binance) Candles(ctx context.Context, q domain.CandleQuery) ([]domain.Candle, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultCandleLimit
	}
	svc := b.client.NewKlinesService().Symbol(b.native(q.Symbol)).Interval(q.Interval).Limit(limit)
	if q.StartTime > 0 {
		svc = svc.StartTime(q.StartTime)
	}
	if q.EndTime > 0 {
		svc = svc.EndTime(q.EndTime)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("klines", err)
	}
	unified := symbol.Unified(q.Symbol)
	out := make([]domain.Candle, 0, len(res))
	for _, k := range res {
		out = append(out, domain.Candle{
			OpenTime:                 k.OpenTime,
			Open:                     num(k.Open),
			High:                     num(k.High),
			Low:                      num(k.Low),
			Close:                    num(k.Close),
			Volume:                   num(k.Volume),
			CloseTime:                k.CloseTime,
			QuoteAssetVolume:         num(k.QuoteAssetVolume),
			NumberOfTrades:           k.TradeNum,
			TakerBuyBaseAssetVolume:  num(k.TakerBuyBaseAssetVolume),
			TakerBuyQuoteAssetVolume: num(k.TakerBuyQuoteAssetVolume),
			Symbol:                   unified,
			Interval:                 q.Interval,
			Exchange:                 b.id,
		})
	}
	return out, nil
}

func (b *Binance) Markets(ctx context.Context) ([]domain.Market, error) {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, b.wrap("exchange info", err)
	}
	out := make([]domain.Market, 0, len(info.Symbols))
	index := make(map[string]domain.Market, len(info.Symbols))
	for _, s := range info.Symbols {
		m := domain.Market{
			Symbol: s.BaseAsset + "/" + s.QuoteAsset,
			ID:     s.Symbol,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "TRADING",
		}
		out = append(out, m)
		index[s.Symbol] = m
	}
	b.mu.Lock()
	b.markets = index
	b.mu.Unlock()
	return out, nil
}

// loadMarkets fills the native id index once. Failures fall back to
// heuristic symbol splitting.
func (b *Binance) loadMarkets(ctx context.Context) {
	b.mu.Lock()
	loaded := b.markets != nil
	b.mu.Unlock()
	if loaded {
		return
	}
	if _, err := b.Markets(ctx); err != nil {
		b.logger.Warn("failed to load markets", "err", err)
	}
}

func (b *Binance) Balance(ctx context.Context) (*domain.Balance, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	acct, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, b.wrap("account", err)
	}
	bal := &domain.Balance{Timestamp: b.now().UnixMilli()}
	for _, a := range acct.Balances {
		free, locked := dec(a.Free), dec(a.Locked)
		total := free.Add(locked)
		if !total.IsPositive() {
			continue
		}
		f, _ := free.Float64()
		l, _ := locked.Float64()
		t, _ := total.Float64()
		bal.Assets = append(bal.Assets, domain.BalanceAsset{Asset: a.Asset, Free: f, Used: l, Total: t})
	}
	return bal, nil
}

type dustPayload struct {
	Dribblets []struct {
		OperateTime int64 `json:"operateTime"`
		Details     []struct {
			FromAsset           string     `json:"fromAsset"`
			Amount              looseFloat `json:"amount"`
			ServiceChargeAmount looseFloat `json:"serviceChargeAmount"`
			TransferedAmount    looseFloat `json:"transferedAmount"`
			OperateTime         int64      `json:"operateTime"`
		} `json:"userAssetDribbletDetails"`
	} `json:"userAssetDribblets"`
}

func (b *Binance) DustLog(ctx context.Context) ([]domain.DustLogEntry, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	res, err := b.client.NewListDustLogService().Do(ctx)
	if err != nil {
		return nil, b.wrap("dust log", err)
	}
	// The SDK's numeric field types differ between releases; go through JSON.
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, b.wrap("dust log", err)
	}
	var payload dustPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, b.wrap("dust log", err)
	}

	var out []domain.DustLogEntry
	for _, d := range payload.Dribblets {
		for _, detail := range d.Details {
			ts := detail.OperateTime
			if ts == 0 {
				ts = d.OperateTime
			}
			out = append(out, domain.DustLogEntry{
				Asset:               detail.FromAsset,
				Amount:              float64(detail.Amount),
				ServiceChargeAmount: float64(detail.ServiceChargeAmount),
				TransferedAmount:    float64(detail.TransferedAmount),
				OperateTime:         ts,
				FromAsset:           detail.FromAsset,
				ToAsset:             "BNB",
				Status:              "converted",
			})
		}
	}
	return out, nil
}

func (b *Binance) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	svc := b.client.NewCreateOrderService().
		Symbol(b.native(req.Symbol)).
		Side(binance.SideType(strings.ToUpper(string(req.Side)))).
		Type(binance.OrderType(strings.ToUpper(string(req.Type)))).
		Quantity(formatDecimal(req.Quantity))
	if req.Type.NeedsPrice() {
		svc = svc.Price(formatDecimal(req.Price)).TimeInForce(binance.TimeInForceTypeGTC)
	}
	if req.Type.NeedsStopPrice() {
		svc = svc.StopPrice(formatDecimal(req.StopPrice))
	}
	if req.IcebergQty > 0 {
		svc = svc.IcebergQuantity(formatDecimal(req.IcebergQty))
	}
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("create order", err)
	}
	b.logger.Info("order created", "symbol", req.Symbol, "side", req.Side, "type", req.Type, "order_id", res.OrderID)
	return orderFrom(symbol.Unified(req.Symbol), res.OrderID, res.ClientOrderID, string(res.Status), string(res.Type), string(res.Side),
		res.Price, res.OrigQuantity, res.ExecutedQuantity, res.CummulativeQuoteQuantity, res.TransactTime), nil
}

func (b *Binance) Order(ctx context.Context, sym, orderID string) (*domain.Order, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	svc := b.client.NewGetOrderService().Symbol(b.native(sym))
	if id, ok := numericOrderID(orderID); ok {
		svc = svc.OrderID(id)
	} else {
		svc = svc.OrigClientOrderID(orderID)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("order status", err)
	}
	o := b.convertOrder(res)
	return &o, nil
}

func (b *Binance) Orders(ctx context.Context, sym string) ([]domain.Order, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	res, err := b.client.NewListOrdersService().Symbol(b.native(sym)).Do(ctx)
	if err != nil {
		return nil, b.wrap("all orders", err)
	}
	return b.convertOrders(res), nil
}

func (b *Binance) OpenOrders(ctx context.Context, sym string) ([]domain.Order, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	svc := b.client.NewListOpenOrdersService()
	if sym != "" {
		svc = svc.Symbol(b.native(sym))
	} else {
		b.loadMarkets(ctx)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("open orders", err)
	}
	return b.convertOrders(res), nil
}

func (b *Binance) CancelOrder(ctx context.Context, sym, orderID string) (*domain.CancelResult, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	svc := b.client.NewCancelOrderService().Symbol(b.native(sym))
	if id, ok := numericOrderID(orderID); ok {
		svc = svc.OrderID(id)
	} else {
		svc = svc.OrigClientOrderID(orderID)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("cancel order", err)
	}
	b.logger.Info("order canceled", "symbol", sym, "order_id", res.OrderID)
	return &domain.CancelResult{
		OrderID: strconv.FormatInt(res.OrderID, 10),
		Symbol:  symbol.Unified(sym),
		Status:  normalizeStatus(string(res.Status)),
	}, nil
}

func (b *Binance) CancelAllOrders(ctx context.Context, sym string) ([]domain.CancelResult, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	res, err := b.client.NewCancelOpenOrdersService().Symbol(b.native(sym)).Do(ctx)
	if err != nil {
		return nil, b.wrap("cancel all orders", err)
	}
	unified := symbol.Unified(sym)
	out := make([]domain.CancelResult, 0, len(res.Orders))
	for _, o := range res.Orders {
		out = append(out, domain.CancelResult{
			OrderID: strconv.FormatInt(o.OrderID, 10),
			Symbol:  unified,
			Status:  normalizeStatus(string(o.Status)),
		})
	}
	// OCO lists report each leg separately.
	for _, list := range res.OCOOrders {
		for _, leg := range list.OrderReports {
			out = append(out, domain.CancelResult{
				OrderID: strconv.FormatInt(leg.OrderID, 10),
				Symbol:  unified,
				Status:  normalizeStatus(string(leg.Status)),
			})
		}
	}
	b.logger.Info("orders canceled", "symbol", sym, "count", len(out))
	return out, nil
}

func (b *Binance) MyTrades(ctx context.Context, sym string, limit int) ([]domain.Trade, error) {
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	svc := b.client.NewListTradesService().Symbol(b.native(sym))
	if limit > 0 {
		svc = svc.Limit(limit)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("trades", err)
	}
	unified := symbol.Unified(sym)
	out := make([]domain.Trade, 0, len(res))
	for _, t := range res {
		side := string(domain.SideSell)
		if t.IsBuyer {
			side = string(domain.SideBuy)
		}
		trade := domain.Trade{
			ID:        strconv.FormatInt(t.ID, 10),
			OrderID:   strconv.FormatInt(t.OrderID, 10),
			Symbol:    unified,
			Side:      side,
			Price:     num(t.Price),
			Amount:    num(t.Quantity),
			Cost:      num(t.QuoteQuantity),
			Timestamp: t.Time,
		}
		if t.CommissionAsset != "" {
			trade.Fee = &domain.Fee{Cost: num(t.Commission), Currency: t.CommissionAsset}
		}
		out = append(out, trade)
	}
	return out, nil
}

func (b *Binance) convertOrders(in []*binance.Order) []domain.Order {
	out := make([]domain.Order, 0, len(in))
	for _, o := range in {
		out = append(out, b.convertOrder(o))
	}
	return out
}

func (b *Binance) convertOrder(o *binance.Order) domain.Order {
	return *orderFrom(b.unified(o.Symbol), o.OrderID, o.ClientOrderID, string(o.Status), string(o.Type), string(o.Side),
		o.Price, o.OrigQuantity, o.ExecutedQuantity, o.CummulativeQuoteQuantity, o.Time)
}

// orderFrom normalizes a spot order. Market orders report a zero price, so
// the average fill price is derived from the quote amount instead.
func orderFrom(sym string, id int64, clientID, status, typ, side, price, orig, executed, quote string, ts int64) *domain.Order {
	amount := dec(orig)
	filled := dec(executed)
	p := dec(price)
	if p.IsZero() && filled.IsPositive() {
		p = dec(quote).Div(filled)
	}
	pf, _ := p.Float64()
	af, _ := amount.Float64()
	ff, _ := filled.Float64()
	rf, _ := amount.Sub(filled).Float64()
	return &domain.Order{
		OrderID:       strconv.FormatInt(id, 10),
		ClientOrderID: clientID,
		Symbol:        sym,
		Status:        normalizeStatus(status),
		Type:          strings.ToLower(typ),
		Side:          strings.ToLower(side),
		Price:         pf,
		Amount:        af,
		Filled:        ff,
		Remaining:     rf,
		Timestamp:     ts,
	}
}

func numericOrderID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
