package domain

import (
	"fmt"
	"strings"
)

// All timestamps in this package are Unix milliseconds.

type TickerPrice struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

type BookTicker struct {
	Symbol    string  `json:"symbol"`
	BidPrice  float64 `json:"bidPrice"`
	BidQty    float64 `json:"bidQty"`
	AskPrice  float64 `json:"askPrice"`
	AskQty    float64 `json:"askQty"`
	Timestamp int64   `json:"timestamp"`
}

// Level is one order book entry encoded as [price, quantity].
type Level [2]float64

func (l Level) Price() float64    { return l[0] }
func (l Level) Quantity() float64 { return l[1] }

type OrderBook struct {
	Symbol    string  `json:"symbol"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
	Timestamp int64   `json:"timestamp"`
}

type DayStats struct {
	Symbol             string  `json:"symbol"`
	PriceChange        float64 `json:"priceChange"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	WeightedAvgPrice   float64 `json:"weightedAvgPrice"`
	PrevClosePrice     float64 `json:"prevClosePrice"`
	LastPrice          float64 `json:"lastPrice"`
	LastQty            float64 `json:"lastQty"`
	BidPrice           float64 `json:"bidPrice"`
	AskPrice           float64 `json:"askPrice"`
	OpenPrice          float64 `json:"openPrice"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quoteVolume"`
	OpenTime           int64   `json:"openTime"`
	CloseTime          int64   `json:"closeTime"`
	Count              int64   `json:"count"`
}

type Candle struct {
	OpenTime                 int64   `json:"openTime"`
	Open                     float64 `json:"open"`
	High                     float64 `json:"high"`
	Low                      float64 `json:"low"`
	Close                    float64 `json:"close"`
	Volume                   float64 `json:"volume"`
	CloseTime                int64   `json:"closeTime"`
	QuoteAssetVolume         float64 `json:"quoteAssetVolume"`
	NumberOfTrades           int64   `json:"numberOfTrades"`
	TakerBuyBaseAssetVolume  float64 `json:"takerBuyBaseAssetVolume"`
	TakerBuyQuoteAssetVolume float64 `json:"takerBuyQuoteAssetVolume"`
	Symbol                   string  `json:"symbol"`
	Interval                 string  `json:"interval"`
	Exchange                 string  `json:"exchange"`
}

// CandleQuery selects a candle series. Zero StartTime or EndTime means unbounded.
type CandleQuery struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval"`
	Limit     int    `json:"limit,omitempty"`
	StartTime int64  `json:"startTime,omitempty"`
	EndTime   int64  `json:"endTime,omitempty"`
}

func (q CandleQuery) CacheKey() string {
	return fmt.Sprintf("%s:%s:%d:%d:%d", q.Symbol, q.Interval, q.Limit, q.StartTime, q.EndTime)
}

var SupportedIntervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

func IsSupportedInterval(interval string) bool {
	for _, v := range SupportedIntervals {
		if v == interval {
			return true
		}
	}
	return false
}

// SupportedExchanges lists the exchange ids the server can connect to.
var SupportedExchanges = []string{"binance", "binanceus"}

var ExchangeNames = map[string]string{
	"binance":   "Binance",
	"binanceus": "Binance US",
}

func IsSupportedExchange(id string) bool {
	_, ok := ExchangeNames[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

type BalanceAsset struct {
	Asset string  `json:"asset"`
	Free  float64 `json:"free"`
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
}

type Balance struct {
	Assets    []BalanceAsset `json:"assets"`
	Timestamp int64          `json:"timestamp"`
}

type DustLogEntry struct {
	Asset               string  `json:"asset"`
	Amount              float64 `json:"amount"`
	ServiceChargeAmount float64 `json:"serviceChargeAmount"`
	TransferedAmount    float64 `json:"transferedAmount"`
	OperateTime         int64   `json:"operateTime"`
	FromAsset           string  `json:"fromAsset,omitempty"`
	ToAsset             string  `json:"toAsset"`
	Status              string  `json:"status"`
}

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

func ParseOrderSide(raw string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return "", fmt.Errorf("invalid order side: %q", raw)
	}
}

type OrderType string

const (
	OrderTypeLimit           OrderType = "limit"
	OrderTypeMarket          OrderType = "market"
	OrderTypeStopLoss        OrderType = "STOP_LOSS"
	OrderTypeStopLossLimit   OrderType = "STOP_LOSS_LIMIT"
	OrderTypeTakeProfit      OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitLimit OrderType = "TAKE_PROFIT_LIMIT"
)

// ParseOrderType accepts the canonical names case-insensitively.
func ParseOrderType(raw string) (OrderType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LIMIT":
		return OrderTypeLimit, nil
	case "MARKET":
		return OrderTypeMarket, nil
	case "STOP_LOSS":
		return OrderTypeStopLoss, nil
	case "STOP_LOSS_LIMIT":
		return OrderTypeStopLossLimit, nil
	case "TAKE_PROFIT":
		return OrderTypeTakeProfit, nil
	case "TAKE_PROFIT_LIMIT":
		return OrderTypeTakeProfitLimit, nil
	default:
		return "", fmt.Errorf("invalid order type: %q", raw)
	}
}

// NeedsPrice reports whether the order type rests on the book at a limit price.
func (t OrderType) NeedsPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		return true
	}
	return false
}

// NeedsStopPrice reports whether the order type is triggered by a stop price.
func (t OrderType) NeedsStopPrice() bool {
	switch t {
	case OrderTypeStopLoss, OrderTypeStopLossLimit, OrderTypeTakeProfit, OrderTypeTakeProfitLimit:
		return true
	}
	return false
}

type OrderRequest struct {
	Symbol        string    `json:"symbol"`
	Side          OrderSide `json:"side"`
	Type          OrderType `json:"type"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price,omitempty"`
	StopPrice     float64   `json:"stopPrice,omitempty"`
	IcebergQty    float64   `json:"icebergQty,omitempty"`
	ClientOrderID string    `json:"clientOrderId,omitempty"`
}

func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return fmt.Errorf("invalid order side: %q", r.Side)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if r.Type.NeedsPrice() && r.Price <= 0 {
		return fmt.Errorf("price is required for %s orders", r.Type)
	}
	if r.Type.NeedsStopPrice() && r.StopPrice <= 0 {
		return fmt.Errorf("stopPrice is required for %s orders", r.Type)
	}
	if r.IcebergQty < 0 {
		return fmt.Errorf("icebergQty must not be negative")
	}
	return nil
}

type Order struct {
	OrderID       string  `json:"orderId"`
	ClientOrderID string  `json:"clientOrderId,omitempty"`
	Symbol        string  `json:"symbol"`
	Status        string  `json:"status"`
	Type          string  `json:"type"`
	Side          string  `json:"side"`
	Price         float64 `json:"price"`
	Amount        float64 `json:"amount"`
	Filled        float64 `json:"filled"`
	Remaining     float64 `json:"remaining"`
	Timestamp     int64   `json:"timestamp"`
}

type CancelResult struct {
	OrderID string `json:"orderId"`
	Symbol  string `json:"symbol"`
	Status  string `json:"status"`
}

type Fee struct {
	Cost     float64 `json:"cost"`
	Currency string  `json:"currency"`
}

type Trade struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Cost      float64 `json:"cost"`
	Fee       *Fee    `json:"fee,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type Position struct {
	Symbol           string  `json:"symbol"`
	Side             string  `json:"side"`
	Amount           float64 `json:"amount"`
	EntryPrice       float64 `json:"entryPrice"`
	MarkPrice        float64 `json:"markPrice"`
	UnrealizedProfit float64 `json:"unrealizedProfit"`
	LiquidationPrice float64 `json:"liquidationPrice"`
	Leverage         float64 `json:"leverage"`
	MarginType       string  `json:"marginType"`
}

type FundingRate struct {
	Symbol          string  `json:"symbol"`
	MarkPrice       float64 `json:"markPrice"`
	FundingRate     float64 `json:"fundingRate"`
	NextFundingTime int64   `json:"nextFundingTime"`
	Timestamp       int64   `json:"timestamp"`
}

type Market struct {
	Symbol string `json:"symbol"`
	ID     string `json:"id"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	Active bool   `json:"active"`
}

type ExchangeStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}
