package mcp

import (
	"context"
	"fmt"

	"crypto-mcp/internal/logging"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerSystemTools(server *mcp.Server, t *toolset) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkExchangeConfigs",
		Description: "Check which exchanges are supported and whether their API credentials are configured",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, any, error) {
		t.called("checkExchangeConfigs", nil)
		if t.exchanges == nil {
			return nil, nil, fmt.Errorf("exchange registry unavailable")
		}
		statuses := t.exchanges.Statuses()
		rows := make([][]string, 0, len(statuses))
		for _, st := range statuses {
			ready := "❌"
			if st.Ready {
				ready = "✅"
			}
			rows = append(rows, []string{st.ID, st.Name, ready, st.Error})
		}
		text := markdownTable([]string{"Exchange ID", "Name", "Ready", "Error"}, rows)
		if def := t.exchanges.DefaultID(); def != "" {
			text += "\n\nDefault exchange: " + def
		}
		return textResult(text), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyzeLogs",
		Description: "Read the server log file for a date (YYYY-MM-DD, today or yesterday), optionally filtered by text and level",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in analyzeLogsInput) (*mcp.CallToolResult, any, error) {
		t.called("analyzeLogs", in)
		if t.logs == nil {
			return nil, nil, fmt.Errorf("log reader unavailable")
		}
		if in.Limit < 0 {
			return nil, nil, fmt.Errorf("limit must not be negative")
		}
		res, err := t.logs.Read(logging.Query{Date: in.Date, Search: in.Search, Level: in.Level, Limit: in.Limit})
		if err != nil {
			return nil, nil, t.failed("analyzeLogs", err)
		}
		if res.Content == "" {
			return textResult(fmt.Sprintf("No matching log lines in %s.", res.File)), nil, nil
		}
		return textResult(res.Content), nil, nil
	})
}
