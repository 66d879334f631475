package mcp

import (
	"context"
	"fmt"
	"strings"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var orderHeaders = []string{"Order ID", "Symbol", "Status", "Type", "Side", "Price", "Amount", "Filled", "Remaining", "Timestamp"}

func registerAccountTools(server *mcp.Server, t *toolset) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "balance",
		Description: "Get account balances with free, used and total amounts per asset",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in exchangeInput) (*mcp.CallToolResult, any, error) {
		t.called("balance", in)
		bal, err := t.account.Balance(ctx, in.Exchange)
		if err != nil {
			return nil, nil, t.failed("balance", err)
		}
		rows := make([][]string, 0, len(bal.Assets))
		for _, a := range bal.Assets {
			rows = append(rows, []string{a.Asset, num(a.Free), num(a.Used), num(a.Total)})
		}
		return textResult(markdownTable([]string{"Asset", "Free", "Used", "Total"}, rows)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dustLog",
		Description: "Get the history of small balances converted to BNB",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in exchangeInput) (*mcp.CallToolResult, any, error) {
		t.called("dustLog", in)
		entries, err := t.account.DustLog(ctx, in.Exchange)
		if err != nil {
			return nil, nil, t.failed("dustLog", err)
		}
		if entries == nil {
			entries = []domain.DustLogEntry{}
		}
		return jsonResult(entries)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "positions",
		Description: "Get open perpetual futures positions",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in exchangeInput) (*mcp.CallToolResult, any, error) {
		t.called("positions", in)
		positions, err := t.account.Positions(ctx, in.Exchange)
		if err != nil {
			return nil, nil, t.failed("positions", err)
		}
		rows := make([][]string, 0, len(positions))
		for _, p := range positions {
			rows = append(rows, []string{
				p.Symbol, p.Side, num(p.Amount), num(p.EntryPrice), num(p.MarkPrice),
				num(p.UnrealizedProfit), num(p.LiquidationPrice), num(p.Leverage), p.MarginType,
			})
		}
		headers := []string{"Symbol", "Side", "Amount", "Entry Price", "Mark Price", "Unrealized PnL", "Liquidation Price", "Leverage", "Margin Type"}
		return textResult(markdownTable(headers, rows)), nil, nil
	})

	for _, side := range []domain.OrderSide{domain.SideBuy, domain.SideSell} {
		mcp.AddTool(server, &mcp.Tool{
			Name:        string(side),
			Description: fmt.Sprintf("Place a %s order. Defaults to a LIMIT order at price; options can set the type, iceberg quantity and stop price", side),
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in orderInput) (*mcp.CallToolResult, any, error) {
			t.called(string(side), in)
			place := t.account.Buy
			if side == domain.SideSell {
				place = t.account.Sell
			}
			order, err := place(ctx, in.Exchange, strings.TrimSpace(in.Symbol), in.Quantity, in.Price, in.orderOptions())
			if err != nil {
				return nil, nil, t.failed(string(side), err)
			}
			return jsonResult(order)
		})
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "marketBuy",
		Description: "Place a market buy order",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in marketOrderInput) (*mcp.CallToolResult, any, error) {
		t.called("marketBuy", in)
		order, err := t.account.MarketBuy(ctx, in.Exchange, strings.TrimSpace(in.Symbol), in.Quantity)
		if err != nil {
			return nil, nil, t.failed("marketBuy", err)
		}
		return jsonResult(order)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "marketSell",
		Description: "Place a market sell order",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in marketOrderInput) (*mcp.CallToolResult, any, error) {
		t.called("marketSell", in)
		order, err := t.account.MarketSell(ctx, in.Exchange, strings.TrimSpace(in.Symbol), in.Quantity)
		if err != nil {
			return nil, nil, t.failed("marketSell", err)
		}
		return jsonResult(order)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "orderStatus",
		Description: "Get the status of an order",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in orderRefInput) (*mcp.CallToolResult, any, error) {
		t.called("orderStatus", in)
		order, err := t.account.OrderStatus(ctx, in.Exchange, strings.TrimSpace(in.Symbol), strings.TrimSpace(in.OrderID))
		if err != nil {
			return nil, nil, t.failed("orderStatus", err)
		}
		return textResult(markdownTable(orderHeaders, [][]string{orderRow(*order)})), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "allOrders",
		Description: "Get all orders for a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, any, error) {
		t.called("allOrders", in)
		orders, err := t.account.AllOrders(ctx, in.Exchange, strings.TrimSpace(in.Symbol))
		if err != nil {
			return nil, nil, t.failed("allOrders", err)
		}
		return textResult(ordersTable(orders)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "openOrders",
		Description: "Get open orders for a symbol, or across all symbols when none is given",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in optionalSymbolInput) (*mcp.CallToolResult, any, error) {
		t.called("openOrders", in)
		orders, err := t.account.OpenOrders(ctx, in.Exchange, strings.TrimSpace(in.Symbol))
		if err != nil {
			return nil, nil, t.failed("openOrders", err)
		}
		return textResult(ordersTable(orders)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel",
		Description: "Cancel an order by exchange order id or client order id",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in orderRefInput) (*mcp.CallToolResult, any, error) {
		t.called("cancel", in)
		res, err := t.account.Cancel(ctx, in.Exchange, strings.TrimSpace(in.Symbol), strings.TrimSpace(in.OrderID))
		if err != nil {
			return nil, nil, t.failed("cancel", err)
		}
		return jsonResult(res)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancelAll",
		Description: "Cancel every open order for a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolInput) (*mcp.CallToolResult, any, error) {
		t.called("cancelAll", in)
		res, err := t.account.CancelAll(ctx, in.Exchange, strings.TrimSpace(in.Symbol))
		if err != nil {
			return nil, nil, t.failed("cancelAll", err)
		}
		if res == nil {
			res = []domain.CancelResult{}
		}
		return jsonResult(res)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trades",
		Description: "Get account trade history for a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tradesInput) (*mcp.CallToolResult, any, error) {
		t.called("trades", in)
		trades, err := t.account.Trades(ctx, in.Exchange, strings.TrimSpace(in.Symbol), in.Limit)
		if err != nil {
			return nil, nil, t.failed("trades", err)
		}
		rows := make([][]string, 0, len(trades))
		for _, tr := range trades {
			fee := ""
			if tr.Fee != nil {
				fee = num(tr.Fee.Cost) + " " + tr.Fee.Currency
			}
			rows = append(rows, []string{tr.ID, tr.OrderID, tr.Symbol, tr.Side, num(tr.Price), num(tr.Amount), num(tr.Cost), fee, ts(tr.Timestamp)})
		}
		headers := []string{"Trade ID", "Order ID", "Symbol", "Side", "Price", "Amount", "Cost", "Fee", "Timestamp"}
		return textResult(markdownTable(headers, rows)), nil, nil
	})
}

func (in orderInput) orderOptions() service.OrderOptions {
	if in.Options == nil {
		return service.OrderOptions{}
	}
	return service.OrderOptions{
		Type:          in.Options.Type,
		IcebergQty:    in.Options.IcebergQty,
		StopPrice:     in.Options.StopPrice,
		ClientOrderID: in.Options.ClientOrderID,
	}
}

func orderRow(o domain.Order) []string {
	return []string{o.OrderID, o.Symbol, o.Status, o.Type, o.Side, num(o.Price), num(o.Amount), num(o.Filled), num(o.Remaining), ts(o.Timestamp)}
}

func ordersTable(orders []domain.Order) string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderRow(o))
	}
	return markdownTable(orderHeaders, rows)
}
