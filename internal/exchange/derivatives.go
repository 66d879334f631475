package exchange

import (
	"context"
	"fmt"
	"strings"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/symbol"
)

func (b *Binance) requireFutures() error {
	if b.futures == nil {
		return fmt.Errorf("%s futures: %w", b.id, ErrNotSupported)
	}
	return nil
}

// Positions returns open USD-M futures positions. Flat entries are skipped.
func (b *Binance) Positions(ctx context.Context) ([]domain.Position, error) {
	if err := b.requireFutures(); err != nil {
		return nil, err
	}
	if err := b.requireCredentials(); err != nil {
		return nil, err
	}
	res, err := b.futures.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, b.wrap("position risk", err)
	}
	out := make([]domain.Position, 0, len(res))
	for _, p := range res {
		amt := num(p.PositionAmt)
		if amt == 0 {
			continue
		}
		side := strings.ToLower(p.PositionSide)
		if side == "" || side == "both" {
			side = "long"
			if amt < 0 {
				side = "short"
			}
		}
		out = append(out, domain.Position{
			Symbol:           symbol.Unified(p.Symbol),
			Side:             side,
			Amount:           amt,
			EntryPrice:       num(p.EntryPrice),
			MarkPrice:        num(p.MarkPrice),
			UnrealizedProfit: num(p.UnRealizedProfit),
			LiquidationPrice: num(p.LiquidationPrice),
			Leverage:         num(p.Leverage),
			MarginType:       p.MarginType,
		})
	}
	return out, nil
}

// FundingRates reads the premium index; an empty symbol returns all perpetuals.
func (b *Binance) FundingRates(ctx context.Context, sym string) ([]domain.FundingRate, error) {
	if err := b.requireFutures(); err != nil {
		return nil, err
	}
	svc := b.futures.NewPremiumIndexService()
	if sym != "" {
		svc = svc.Symbol(b.native(sym))
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, b.wrap("premium index", err)
	}
	out := make([]domain.FundingRate, 0, len(res))
	for _, p := range res {
		out = append(out, domain.FundingRate{
			Symbol:          symbol.Unified(p.Symbol),
			MarkPrice:       num(p.MarkPrice),
			FundingRate:     num(p.LastFundingRate),
			NextFundingTime: p.NextFundingTime,
			Timestamp:       p.Time,
		})
	}
	return out, nil
}
