package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type toolset struct {
	market     MarketReader
	account    AccountManager
	indicators IndicatorCalculator
	exchanges  ExchangeDirectory
	logs       LogReader
	logger     *slog.Logger
}

func (t *toolset) called(name string, params any) {
	t.logger.Debug("tool called", "tool", name, "params", params)
}

func (t *toolset) failed(name string, err error) error {
	t.logger.Error("tool failed", "tool", name, "err", err)
	return err
}

func registerMarketTools(server *mcp.Server, t *toolset) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "prices",
		Description: "Get the latest price for a symbol, or for every symbol when none is given",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in optionalSymbolInput) (*mcp.CallToolResult, any, error) {
		t.called("prices", in)
		prices, err := t.market.Prices(ctx, in.Exchange, strings.TrimSpace(in.Symbol))
		if err != nil {
			return nil, nil, t.failed("prices", err)
		}
		if strings.TrimSpace(in.Symbol) != "" && len(prices) == 1 {
			return jsonResult(prices[0])
		}
		return jsonResult(prices)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bookTickers",
		Description: "Get best bid and ask prices for a symbol, or for every symbol when none is given",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in optionalSymbolInput) (*mcp.CallToolResult, any, error) {
		t.called("bookTickers", in)
		tickers, err := t.market.BookTickers(ctx, in.Exchange, strings.TrimSpace(in.Symbol))
		if err != nil {
			return nil, nil, t.failed("bookTickers", err)
		}
		rows := make([][]string, 0, len(tickers))
		for _, tk := range tickers {
			rows = append(rows, []string{tk.Symbol, num(tk.BidPrice), num(tk.BidQty), num(tk.AskPrice), num(tk.AskQty), ts(tk.Timestamp)})
		}
		return textResult(markdownTable([]string{"Symbol", "Bid Price", "Bid Qty", "Ask Price", "Ask Qty", "Timestamp"}, rows)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "depth",
		Description: "Get the order book for a symbol, showing the top 10 bids and asks",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, any, error) {
		t.called("depth", in)
		book, err := t.market.Depth(ctx, in.Exchange, strings.TrimSpace(in.Symbol), defaultDepthLimit)
		if err != nil {
			return nil, nil, t.failed("depth", err)
		}
		bids := markdownTable([]string{"Bid Price", "Bid Qty"}, levelRows(book.Bids))
		asks := markdownTable([]string{"Ask Price", "Ask Qty"}, levelRows(book.Asks))
		return textResult(fmt.Sprintf("**Bids**\n%s\n\n**Asks**\n%s", bids, asks)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "prevDay",
		Description: "Get 24 hour price change statistics for a symbol, or for every symbol when symbol is false or omitted",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in prevDayInput) (*mcp.CallToolResult, any, error) {
		t.called("prevDay", in)
		sym, err := prevDaySymbol(in.Symbol)
		if err != nil {
			return nil, nil, err
		}
		stats, err := t.market.DayStats(ctx, in.Exchange, sym)
		if err != nil {
			return nil, nil, t.failed("prevDay", err)
		}
		if sym != "" && len(stats) == 1 {
			return jsonResult(stats[0])
		}
		return jsonResult(stats)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fundingRate",
		Description: "Get perpetual futures mark price and funding rate for a symbol, or for every perpetual",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in optionalSymbolInput) (*mcp.CallToolResult, any, error) {
		t.called("fundingRate", in)
		rates, err := t.market.FundingRates(ctx, in.Exchange, strings.TrimSpace(in.Symbol))
		if err != nil {
			return nil, nil, t.failed("fundingRate", err)
		}
		rows := make([][]string, 0, len(rates))
		for _, r := range rates {
			rows = append(rows, []string{r.Symbol, num(r.MarkPrice), num(r.FundingRate), ts(r.NextFundingTime), ts(r.Timestamp)})
		}
		return textResult(markdownTable([]string{"Symbol", "Mark Price", "Funding Rate", "Next Funding Time", "Timestamp"}, rows)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "candlesticks",
		Description: "Get OHLCV candlesticks for a symbol and interval",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in candlesInput) (*mcp.CallToolResult, any, error) {
		t.called("candlesticks", in)
		q, err := in.candleQuery()
		if err != nil {
			return nil, nil, err
		}
		candles, err := t.market.Candles(ctx, in.Exchange, q)
		if err != nil {
			return nil, nil, t.failed("candlesticks", err)
		}
		if len(candles) == 0 {
			return nil, nil, fmt.Errorf("no candlestick data available for %s %s", q.Symbol, q.Interval)
		}
		return jsonResult(candles)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculateIndicators",
		Description: "Calculate technical indicators from candlesticks. Supported: macd, rsi, bollinger bands, kdj, ema, ema7, ema30, ema120, ma, atr, cmf, adx, stochastic, obv, mfi, volumespike",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in indicatorsInput) (*mcp.CallToolResult, any, error) {
		t.called("calculateIndicators", in)
		q, err := in.candles().candleQuery()
		if err != nil {
			return nil, nil, err
		}
		result, err := t.indicators.Calculate(ctx, indicatorRequest(in, q))
		if err != nil {
			return nil, nil, t.failed("calculateIndicators", err)
		}
		return jsonResult(result)
	})
}

func levelRows(levels []domain.Level) [][]string {
	if len(levels) > depthLevels {
		levels = levels[:depthLevels]
	}
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []string{num(l.Price()), num(l.Quantity())})
	}
	return rows
}

func indicatorRequest(in indicatorsInput, q domain.CandleQuery) service.IndicatorRequest {
	return service.IndicatorRequest{
		Exchange:     in.Exchange,
		Query:        q,
		Indicators:   in.Indicators,
		Period:       in.Period,
		FastPeriod:   in.FastPeriod,
		SlowPeriod:   in.SlowPeriod,
		SignalPeriod: in.SignalPeriod,
		StdDev:       in.StdDev,
	}
}
