package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"crypto-mcp/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type resourceDeps struct {
	market       MarketReader
	exchanges    ExchangeDirectory
	configReport func() string
	readmePath   string
}

func registerResources(server *mcp.Server, deps resourceDeps) {
	server.AddResource(&mcp.Resource{
		URI:         "supportedExchanges://",
		Name:        "supportedExchanges",
		Description: "Exchanges with API credentials configured",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if deps.exchanges == nil {
			return nil, fmt.Errorf("exchange registry unavailable")
		}
		available := deps.exchanges.Available()
		if available == nil {
			available = []string{}
		}
		return jsonResource(req.Params.URI, available)
	})

	server.AddResource(&mcp.Resource{
		URI:         "projectIntro://",
		Name:        "projectIntro",
		Description: "Introduction to this server and the tools it provides",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if deps.readmePath == "" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		body, err := os.ReadFile(deps.readmePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, mcp.ResourceNotFoundError(req.Params.URI)
			}
			return nil, fmt.Errorf("read project intro: %w", err)
		}
		return textResource(req.Params.URI, "text/markdown", string(body)), nil
	})

	server.AddResource(&mcp.Resource{
		URI:         "config://status",
		Name:        "configStatus",
		Description: "Configuration report with credential and transport status",
		MIMEType:    "text/plain",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if deps.configReport == nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return textResource(req.Params.URI, "text/plain", deps.configReport()), nil
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "markets://{exchange}",
		Name:        "markets",
		Description: "Spot markets listed by an exchange",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if deps.market == nil {
			return nil, fmt.Errorf("market service unavailable")
		}
		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "markets" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		id := strings.ToLower(strings.TrimSpace(parsed.Host))
		if !domain.IsSupportedExchange(id) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		markets, err := deps.market.Markets(ctx, id)
		if err != nil {
			return nil, err
		}
		if markets == nil {
			markets = []domain.Market{}
		}
		return jsonResource(req.Params.URI, markets)
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return textResource(uri, "application/json", string(body)), nil
}

func textResource(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}
