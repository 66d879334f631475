package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"crypto-mcp/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubCandleSource struct {
	candles []domain.Candle
	err     error
	lastEx  string
	lastQ   domain.CandleQuery
}

func (s *stubCandleSource) Candles(ctx context.Context, exchangeID string, q domain.CandleQuery) ([]domain.Candle, error) {
	s.lastEx = exchangeID
	s.lastQ = q
	return s.candles, s.err
}

func linearCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		c := float64(i + 1)
		out[i] = domain.Candle{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: float64(10 + i)}
	}
	return out
}

func TestIndicatorServiceDefaults(t *testing.T) {
	src := &stubCandleSource{candles: linearCandles(60)}
	svc := NewIndicatorService(trace.NewNoopTracerProvider().Tracer("test"), src, quietLogger())

	got, err := svc.Calculate(context.Background(), IndicatorRequest{
		Exchange: "binance",
		Query:    domain.CandleQuery{Symbol: "BTC/USDT", Interval: "1h"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range DefaultIndicators {
		v, ok := got[name]
		if !ok {
			t.Fatalf("missing %s in result", name)
		}
		if v == nil {
			t.Fatalf("expected %s to be computed", name)
		}
	}
	if src.lastEx != "binance" || src.lastQ.Interval != "1h" {
		t.Fatalf("unexpected candle query: %s %+v", src.lastEx, src.lastQ)
	}
}

func TestIndicatorServiceFailuresAreNull(t *testing.T) {
	src := &stubCandleSource{candles: linearCandles(5)}
	svc := NewIndicatorService(trace.NewNoopTracerProvider().Tracer("test"), src, quietLogger())

	got, err := svc.Calculate(context.Background(), IndicatorRequest{
		Query:      domain.CandleQuery{Symbol: "BTC/USDT", Interval: "1h"},
		Indicators: []string{"obv", "wavetrend"},
		Period:     3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("result must encode: %v", err)
	}
	if !strings.Contains(string(raw), `"wavetrend":null`) {
		t.Fatalf("expected unknown indicator to be null, got %s", raw)
	}
	if got["obv"] == nil {
		t.Fatal("expected obv to be computed")
	}
}

func TestIndicatorServiceCandleError(t *testing.T) {
	src := &stubCandleSource{err: errors.New("exchange down")}
	svc := NewIndicatorService(trace.NewNoopTracerProvider().Tracer("test"), src, quietLogger())

	if _, err := svc.Calculate(context.Background(), IndicatorRequest{}); err == nil {
		t.Fatal("expected candle error")
	}
}

func TestInputFromCandles(t *testing.T) {
	in := InputFromCandles(linearCandles(3))
	if len(in.Values) != 3 || in.Values[2] != 3 || in.High[0] != 2 || in.Low[0] != 0 || in.Volume[1] != 11 || in.Open[1] != 2 {
		t.Fatalf("unexpected input: %+v", in)
	}
}
