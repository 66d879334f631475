package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"crypto-mcp/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type severityProfile struct {
	levels  []string
	focus   string
	urgency string
}

var severityProfiles = map[string]severityProfile{
	"critical": {
		levels:  []string{"emerg", "alert", "crit", "error"},
		focus:   "critical issues and system failures",
		urgency: "immediate attention required",
	},
	"moderate": {
		levels:  []string{"error", "warning", "notice"},
		focus:   "errors and important warnings",
		urgency: "should be addressed soon",
	},
	"low": {
		levels:  []string{"info", "debug"},
		focus:   "general information and debugging",
		urgency: "informational review",
	},
}

var (
	problemTypes = []string{"error", "performance", "api", "general"}
	timeRanges   = []string{"today", "yesterday", "recent"}
	severities   = []string{"critical", "moderate", "low"}
)

func symbolArg(required bool) *mcp.PromptArgument {
	return &mcp.PromptArgument{Name: "symbol", Description: "Trading pair symbol, e.g. BTC/USDT, ETH/USDT", Required: required}
}

func exchangeArg() *mcp.PromptArgument {
	return &mcp.PromptArgument{Name: "exchange", Description: "Exchange id, e.g. " + strings.Join(domain.SupportedExchanges, ", ")}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: text},
		}},
	}
}

func promptArgs(req *mcp.GetPromptRequest) map[string]string {
	if req == nil || req.Params == nil || req.Params.Arguments == nil {
		return map[string]string{}
	}
	return req.Params.Arguments
}

func requireArg(args map[string]string, name string) (string, error) {
	v := strings.TrimSpace(args[name])
	if v == "" {
		return "", fmt.Errorf("argument %s is required", name)
	}
	return v, nil
}

// enumArg returns the argument, its fallback when empty, or an error when
// the value is not one of allowed.
func enumArg(args map[string]string, name, fallback string, allowed []string) (string, error) {
	v := strings.TrimSpace(args[name])
	if v == "" {
		return fallback, nil
	}
	if !slices.Contains(allowed, v) {
		return "", fmt.Errorf("argument %s must be one of %s", name, strings.Join(allowed, ", "))
	}
	return v, nil
}

func exchangeHint(args map[string]string) string {
	if ex := strings.TrimSpace(args["exchange"]); ex != "" {
		return fmt.Sprintf("\n\nUse exchange=%q for every tool call.", ex)
	}
	return ""
}

func registerPrompts(server *mcp.Server, logger *slog.Logger) {
	called := func(name string, args map[string]string) {
		logger.Debug("prompt requested", "prompt", name, "args", args)
	}

	server.AddPrompt(&mcp.Prompt{
		Name:        "marketAnalysis",
		Description: "Technical analysis of a trading pair",
		Arguments:   []*mcp.PromptArgument{symbolArg(true), exchangeArg()},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("marketAnalysis", args)
		sym, err := requireArg(args, "symbol")
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf(`Please analyze the market situation of %[1]s.

**Analysis Process:**
1. Use the "candlesticks" tool to obtain price data for %[1]s.
2. Use the "calculateIndicators" tool to compute EMA, MACD, RSI, Bollinger Bands and volume indicators.
3. Look for agreement between trend, momentum, volume and volatility indicators.
4. Provide a comprehensive analysis with potential trading signals and risk control suggestions.`, sym)
		return userPrompt("Market analysis for "+sym, text+exchangeHint(args)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "supportResistanceAnalysis",
		Description: "Support and resistance levels for a trading pair",
		Arguments: []*mcp.PromptArgument{
			symbolArg(true),
			{Name: "interval", Description: "Candlestick interval, e.g. 4h, 1d", Required: true},
			exchangeArg(),
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("supportResistanceAnalysis", args)
		sym, err := requireArg(args, "symbol")
		if err != nil {
			return nil, err
		}
		interval, err := requireArg(args, "interval")
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf(`Please analyze the support and resistance levels for %s on the %s timeframe.
1. First use the "candlesticks" tool to get candlestick data
2. Determine major support and resistance areas based on price history
3. Check if price is currently near these levels
4. Use the "calculateIndicators" tool to check how RSI confirms these levels
5. Suggest potential trading strategies based on these levels`, sym, interval)
		return userPrompt("Support and resistance for "+sym, text+exchangeHint(args)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "indicatorAnalysis",
		Description: "Detailed analysis of one technical indicator",
		Arguments: []*mcp.PromptArgument{
			symbolArg(true),
			{Name: "interval", Description: "Candlestick interval, e.g. 1h, 4h, 1d", Required: true},
			{Name: "indicator", Description: "Indicator to analyze, e.g. rsi, macd, bollinger bands", Required: true},
			exchangeArg(),
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("indicatorAnalysis", args)
		var vals [3]string
		for i, name := range []string{"symbol", "interval", "indicator"} {
			v, err := requireArg(args, name)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		text := fmt.Sprintf(`Please perform a detailed analysis of %[1]s on the %[2]s timeframe using the %[3]s indicator.
1. Use the "candlesticks" tool to get price data
2. Use the "calculateIndicators" tool with indicators=["%[3]s"]
3. Interpret the current indicator readings
4. Identify any signals or patterns
5. Place the indicator in the broader market context
6. Suggest potential trading actions based on this analysis`, vals[0], vals[1], vals[2])
		return userPrompt(vals[2]+" analysis for "+vals[0], text+exchangeHint(args)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "portfolioAnalysis",
		Description: "Review current holdings and allocation",
		Arguments:   []*mcp.PromptArgument{exchangeArg()},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("portfolioAnalysis", args)
		text := `Please analyze my current crypto portfolio and provide insights.
1. Use the "balance" tool to retrieve my current holdings
2. Calculate the total portfolio value in USD (using the "prices" tool for each asset)
3. Analyze the portfolio allocation and diversification
4. Check the current market status of each holding using the "prices" and "prevDay" tools
5. Provide suggestions for rebalancing or optimizing the portfolio based on current market conditions`
		return userPrompt("Portfolio analysis", text+exchangeHint(args)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "tradingStatus",
		Description: "Overview of balances and pending orders",
		Arguments:   []*mcp.PromptArgument{exchangeArg()},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("tradingStatus", args)
		text := `Please provide a comprehensive overview of my current trading status.
1. Use the "balance" tool to check my account balance
2. Use the "openOrders" tool to view my pending orders
3. Use the "positions" tool to check open futures positions
4. Summarize my overall trading status, including total value, exposure to different assets, and pending orders
5. Provide any relevant recommendations based on current market conditions`
		return userPrompt("Trading status", text+exchangeHint(args)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "multiTimeframeAnalysis",
		Description: "Trend analysis across daily, 4 hour and hourly timeframes",
		Arguments:   []*mcp.PromptArgument{symbolArg(true), exchangeArg()},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("multiTimeframeAnalysis", args)
		sym, err := requireArg(args, "symbol")
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf(`Please perform a multi-timeframe analysis for %s across different timeframes.
1. Analyze the long-term trend using the 1d timeframe with the "candlesticks" and "calculateIndicators" tools
2. Analyze the medium-term trend using the 4h timeframe
3. Analyze the short-term trend using the 1h timeframe
4. Identify confluence between timeframes (where multiple timeframes suggest the same direction)
5. Check for divergence between price action and indicators like RSI or MACD
6. Propose a trading strategy that aligns with trends across multiple timeframes`, sym)
		return userPrompt("Multi-timeframe analysis for "+sym, text+exchangeHint(args)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "logAnalysis",
		Description: "Troubleshoot the server using its log files",
		Arguments: []*mcp.PromptArgument{
			{Name: "problemType", Description: "Type of problem to investigate: " + strings.Join(problemTypes, ", ")},
			{Name: "timeRange", Description: "Time range to analyze: " + strings.Join(timeRanges, ", ") + " (default today)"},
			{Name: "severity", Description: "Analysis severity level: " + strings.Join(severities, ", ") + " (default moderate)"},
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("logAnalysis", args)
		problem, err := enumArg(args, "problemType", "", problemTypes)
		if err != nil {
			return nil, err
		}
		timeRange, err := enumArg(args, "timeRange", "today", timeRanges)
		if err != nil {
			return nil, err
		}
		severity, err := enumArg(args, "severity", "moderate", severities)
		if err != nil {
			return nil, err
		}
		return userPrompt("Log analysis", logAnalysisText(problem, timeRange, severity)), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "createOrderPrompt",
		Description: "Guide for placing a market or limit order",
		Arguments: []*mcp.PromptArgument{
			symbolArg(true),
			{Name: "side", Description: "Order side: BUY or SELL", Required: true},
			{Name: "quantity", Description: "Order quantity in the base asset", Required: true},
			{Name: "type", Description: "Order type: MARKET (default) or LIMIT"},
			{Name: "price", Description: "Limit price, required for LIMIT orders"},
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("createOrderPrompt", args)
		sym, err := requireArg(args, "symbol")
		if err != nil {
			return nil, err
		}
		quantity, err := requireArg(args, "quantity")
		if err != nil {
			return nil, err
		}
		side, err := enumArg(args, "side", "", []string{"BUY", "SELL"})
		if err != nil {
			return nil, err
		}
		if side == "" {
			return nil, fmt.Errorf("argument side is required")
		}
		orderType, err := enumArg(args, "type", "MARKET", []string{"MARKET", "LIMIT"})
		if err != nil {
			return nil, err
		}
		return userPrompt("Create order", createOrderText(sym, side, quantity, orderType, strings.TrimSpace(args["price"]))), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "cancelOrderPrompt",
		Description: "Guide for finding and cancelling an open order",
		Arguments:   []*mcp.PromptArgument{{Name: "symbol", Description: "Trading pair symbol, leave empty to list all open orders"}},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("cancelOrderPrompt", args)
		var b strings.Builder
		b.WriteString("I want to cancel an order.\n\nFirst, use the \"openOrders\" tool")
		if sym := strings.TrimSpace(args["symbol"]); sym != "" {
			b.WriteString(" for symbol " + sym)
		}
		b.WriteString(" to list all open orders.")
		b.WriteString("\n\nThen, ask the user to specify which order to cancel (order id or client order id).")
		b.WriteString("\n\nTo cancel, use the \"cancel\" tool with parameters:")
		b.WriteString("\n- symbol: (required)")
		b.WriteString("\n- orderId: the exchange order id or the client order id")
		b.WriteString("\n\nTo cancel every open order on a symbol, use the \"cancelAll\" tool instead.")
		b.WriteString("\n\nIf the user does not know the order id, help them find it from the open orders list.")
		return userPrompt("Cancel order", b.String()), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "getOpenOrdersPrompt",
		Description: "List open orders",
		Arguments:   []*mcp.PromptArgument{{Name: "symbol", Description: "Trading pair symbol, leave empty to get all"}},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("getOpenOrdersPrompt", args)
		var b strings.Builder
		b.WriteString("Please list all my open orders")
		if sym := strings.TrimSpace(args["symbol"]); sym != "" {
			b.WriteString(" for symbol " + sym)
		}
		b.WriteString(".\n\nUse the \"openOrders\" tool to fetch the open orders.")
		b.WriteString("\n\nDisplay the order id, price, quantity, and order type for each open order.")
		return userPrompt("Open orders", b.String()), nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "queryAccountBalancePrompt",
		Description: "Check account balances on one or all exchanges",
		Arguments: []*mcp.PromptArgument{{
			Name:        "provider",
			Description: "Exchange to query: " + strings.Join(domain.SupportedExchanges, ", ") + ", or leave empty for all",
		}},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArgs(req)
		called("queryAccountBalancePrompt", args)
		provider, err := enumArg(args, "provider", "", domain.SupportedExchanges)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		b.WriteString("I want to check my account balance")
		if provider != "" {
			b.WriteString(" on " + provider)
		} else {
			b.WriteString(" on all supported exchanges (" + strings.Join(domain.SupportedExchanges, ", ") + ")")
		}
		b.WriteString(".\n\nPlease use the \"balance\" tool with the exchange parameter for each exchange.")
		b.WriteString("\n- If no exchange is specified, query every exchange reported ready by \"checkExchangeConfigs\".")
		b.WriteString("\n- Present the result in a table with the columns asset, free, used and total.")
		b.WriteString("\n- If querying multiple exchanges, group the tables by exchange.")
		return userPrompt("Account balance", b.String()), nil
	})
}

func logAnalysisText(problem, timeRange, severity string) string {
	profile := severityProfiles[severity]
	var b strings.Builder
	b.WriteString("Please analyze the system logs to help troubleshoot issues")
	if problem != "" {
		fmt.Fprintf(&b, " focusing on %s related issues", problem)
	}
	b.WriteString(".\n\n**Analysis Configuration:**\n")
	fmt.Fprintf(&b, "- Time Range: %s\n", timeRange)
	fmt.Fprintf(&b, "- Severity: %s (%s)\n", severity, profile.urgency)
	fmt.Fprintf(&b, "- Focus: %s\n", profile.focus)
	fmt.Fprintf(&b, "- Log Levels: %s\n", strings.Join(profile.levels, ", "))

	b.WriteString("\n**Step-by-Step Analysis Process:**\n\n")
	b.WriteString("1. **Initial Log Overview**\n")
	if timeRange == "recent" {
		b.WriteString("   - Use the \"analyzeLogs\" tool with date=\"today\" and then date=\"yesterday\" to get an overall log summary\n")
	} else {
		fmt.Fprintf(&b, "   - Use the \"analyzeLogs\" tool with date=%q to get an overall log summary\n", timeRange)
	}
	b.WriteString("   - Identify the total number of log entries and any immediate patterns\n")

	if severity != "low" {
		b.WriteString("\n2. **Error Analysis**\n")
		b.WriteString("   - Use \"analyzeLogs\" with level=\"error\" to find all error messages\n")
		b.WriteString("   - Use \"analyzeLogs\" with level=\"warning\" for warning analysis\n")
		b.WriteString("   - Look for recurring error patterns and their frequency\n")
	}

	switch problem {
	case "api":
		b.WriteString("\n3. **Problem-Specific Investigation**\n")
		b.WriteString("   - Search for API-related issues using search=\"API\" or search=\"HTTP\"\n")
		b.WriteString("   - Look for connection timeouts, rate limits, or authentication failures\n")
		b.WriteString("   - Check for exchange-related errors if trading issues occur\n")
	case "performance":
		b.WriteString("\n3. **Problem-Specific Investigation**\n")
		b.WriteString("   - Search for performance keywords using search=\"timeout\" or search=\"slow\"\n")
		b.WriteString("   - Look for memory or CPU related messages\n")
		b.WriteString("   - Check for database or network latency issues\n")
	case "error":
		b.WriteString("\n3. **Problem-Specific Investigation**\n")
		b.WriteString("   - Focus on error and critical level logs\n")
		b.WriteString("   - Use the search parameter to find specific error messages\n")
		b.WriteString("   - Trace error sequences and their root causes\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func createOrderText(sym, side, quantity, orderType, price string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I want to place an order for %s (%s) with quantity %s", sym, side, quantity)
	if orderType == "LIMIT" {
		b.WriteString(" as a LIMIT order")
		if price != "" {
			fmt.Fprintf(&b, " at price %s.", price)
		} else {
			b.WriteString(". Please fetch the latest price using the \"prices\" tool and suggest a reasonable limit price.")
		}
	} else {
		b.WriteString(" as a MARKET order.")
	}

	tool := strings.ToLower(side)
	if orderType == "MARKET" {
		tool = "market" + strings.ToUpper(tool[:1]) + tool[1:]
	}
	fmt.Fprintf(&b, "\n\nPlease use the %q tool. Required parameters:\n- symbol: %s\n- quantity: %s", tool, sym, quantity)
	if orderType == "LIMIT" {
		b.WriteString("\n- price: (user specified or suggested)")
		b.WriteString("\nIf the user did not specify a price, suggest one based on the latest price.")
	}
	return b.String()
}
