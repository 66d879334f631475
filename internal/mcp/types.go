package mcp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"crypto-mcp/internal/domain"
)

const (
	depthLevels        = 10
	defaultDepthLimit  = 100
	defaultCandleLimit = 500
	maxCandleLimit     = 1000
)

type noInput struct{}

type exchangeInput struct {
	Exchange string `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type symbolInput struct {
	Symbol   string `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT or BTC/USDT"`
	Exchange string `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type optionalSymbolInput struct {
	Symbol   string `json:"symbol,omitempty" jsonschema:"optional trading pair symbol, e.g. ETH/USDT"`
	Exchange string `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type prevDayInput struct {
	Symbol   any    `json:"symbol,omitempty" jsonschema:"trading pair symbol (e.g. ETH/USDT) or false for all"`
	Exchange string `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type orderOptionsInput struct {
	Type          string  `json:"type,omitempty" jsonschema:"order type: LIMIT (default), MARKET, STOP_LOSS, STOP_LOSS_LIMIT, TAKE_PROFIT, TAKE_PROFIT_LIMIT"`
	IcebergQty    float64 `json:"icebergQty,omitempty" jsonschema:"iceberg quantity"`
	StopPrice     float64 `json:"stopPrice,omitempty" jsonschema:"trigger price for stop and take-profit orders"`
	ClientOrderID string  `json:"clientOrderId,omitempty" jsonschema:"client supplied order id"`
}

type orderInput struct {
	Symbol   string             `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT"`
	Quantity float64            `json:"quantity" jsonschema:"order quantity in the base asset"`
	Price    float64            `json:"price" jsonschema:"limit price"`
	Options  *orderOptionsInput `json:"options,omitempty" jsonschema:"optional order settings"`
	Exchange string             `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type marketOrderInput struct {
	Symbol   string         `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT"`
	Quantity float64        `json:"quantity" jsonschema:"order quantity in the base asset"`
	Options  map[string]any `json:"options,omitempty" jsonschema:"reserved for exchange specific options"`
	Exchange string         `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type orderRefInput struct {
	Symbol   string `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT"`
	OrderID  string `json:"orderId" jsonschema:"exchange order id or client order id"`
	Exchange string `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type tradesInput struct {
	Symbol   string `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of trades to return"`
	Exchange string `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type analyzeLogsInput struct {
	Date   string `json:"date" jsonschema:"log date: YYYY-MM-DD, today or yesterday"`
	Search string `json:"search,omitempty" jsonschema:"only keep lines containing this text"`
	Level  string `json:"level,omitempty" jsonschema:"only keep lines at this level, e.g. error or warning"`
	Limit  int    `json:"limit,omitempty" jsonschema:"only keep the last N matching lines"`
}

type candlesInput struct {
	Symbol    string         `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT"`
	Interval  string         `json:"interval" jsonschema:"candle interval, e.g. 1m, 5m, 1h, 1d"`
	Limit     int            `json:"limit,omitempty" jsonschema:"number of candles, default 500"`
	StartTime int64          `json:"startTime,omitempty" jsonschema:"start time in unix milliseconds"`
	EndTime   int64          `json:"endTime,omitempty" jsonschema:"end time in unix milliseconds"`
	Options   map[string]any `json:"options,omitempty" jsonschema:"additional options: limit, since/startTime, until/endTime"`
	Exchange  string         `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
}

type indicatorsInput struct {
	Symbol       string         `json:"symbol" jsonschema:"trading pair symbol, e.g. ETH/USDT"`
	Interval     string         `json:"interval" jsonschema:"candle interval, e.g. 1m, 5m, 1h, 1d"`
	Limit        int            `json:"limit,omitempty" jsonschema:"number of candles, default 500"`
	StartTime    int64          `json:"startTime,omitempty" jsonschema:"start time in unix milliseconds"`
	EndTime      int64          `json:"endTime,omitempty" jsonschema:"end time in unix milliseconds"`
	Options      map[string]any `json:"options,omitempty" jsonschema:"additional options: limit, since/startTime, until/endTime"`
	Exchange     string         `json:"exchange,omitempty" jsonschema:"exchange id, e.g. binance or binanceus"`
	Indicators   []string       `json:"indicators,omitempty" jsonschema:"indicators to calculate, default macd, rsi, bollinger bands, kdj, ema, atr, cmf"`
	Period       int            `json:"period,omitempty" jsonschema:"default period for indicators, default 14"`
	FastPeriod   int            `json:"fastPeriod,omitempty" jsonschema:"fast period for MACD, default 12"`
	SlowPeriod   int            `json:"slowPeriod,omitempty" jsonschema:"slow period for MACD, default 26"`
	SignalPeriod int            `json:"signalPeriod,omitempty" jsonschema:"signal period for MACD and Stochastic, default 9"`
	StdDev       float64        `json:"stdDev,omitempty" jsonschema:"standard deviation for Bollinger Bands, default 2"`
}

func (in indicatorsInput) candles() candlesInput {
	return candlesInput{
		Symbol:    in.Symbol,
		Interval:  in.Interval,
		Limit:     in.Limit,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Options:   in.Options,
		Exchange:  in.Exchange,
	}
}

// candleQuery merges the explicit fields with the options map. Explicit
// fields win.
func (in candlesInput) candleQuery() (domain.CandleQuery, error) {
	q := domain.CandleQuery{
		Symbol:    strings.TrimSpace(in.Symbol),
		Interval:  strings.TrimSpace(in.Interval),
		Limit:     in.Limit,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
	if q.Symbol == "" {
		return q, fmt.Errorf("symbol is required")
	}
	if !domain.IsSupportedInterval(q.Interval) {
		return q, fmt.Errorf("unsupported interval %q, expected one of %s", q.Interval, strings.Join(domain.SupportedIntervals, ", "))
	}

	var err error
	if q.Limit == 0 {
		if q.Limit, err = optionInt(in.Options, "limit"); err != nil {
			return q, err
		}
	}
	if q.StartTime == 0 {
		if q.StartTime, err = optionInt64(in.Options, "since", "startTime"); err != nil {
			return q, err
		}
	}
	if q.EndTime == 0 {
		if q.EndTime, err = optionInt64(in.Options, "until", "endTime"); err != nil {
			return q, err
		}
	}

	if q.Limit < 0 {
		return q, fmt.Errorf("limit must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = defaultCandleLimit
	}
	if q.Limit > maxCandleLimit {
		q.Limit = maxCandleLimit
	}
	if q.EndTime > 0 && q.StartTime > q.EndTime {
		return q, fmt.Errorf("startTime must not be after endTime")
	}
	return q, nil
}

func optionInt(opts map[string]any, keys ...string) (int, error) {
	v, err := optionInt64(opts, keys...)
	return int(v), err
}

func optionInt64(opts map[string]any, keys ...string) (int64, error) {
	for _, key := range keys {
		raw, ok := opts[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) {
				return 0, fmt.Errorf("option %s must be an integer", key)
			}
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("option %s must be an integer", key)
			}
			return n, nil
		default:
			return 0, fmt.Errorf("option %s must be an integer", key)
		}
	}
	return 0, nil
}

// prevDaySymbol maps the union symbol argument to a symbol, "" meaning all.
func prevDaySymbol(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case bool:
		if v {
			return "", fmt.Errorf("symbol must be a trading pair or false")
		}
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", fmt.Errorf("symbol must be a trading pair or false")
	}
}
