package service

import (
	"context"
	"log/slog"

	"crypto-mcp/internal/domain"
	"crypto-mcp/internal/indicator"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var DefaultIndicators = []string{"macd", "rsi", "bollinger bands", "kdj", "ema", "atr", "cmf"}

const (
	defaultPeriod       = 14
	defaultFastPeriod   = 12
	defaultSlowPeriod   = 26
	defaultSignalPeriod = 9
	defaultStdDev       = 2
)

type IndicatorRequest struct {
	Exchange     string
	Query        domain.CandleQuery
	Indicators   []string
	Period       int
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
	StdDev       float64
}

func (r *IndicatorRequest) applyDefaults() {
	if len(r.Indicators) == 0 {
		r.Indicators = DefaultIndicators
	}
	if r.Period <= 0 {
		r.Period = defaultPeriod
	}
	if r.FastPeriod <= 0 {
		r.FastPeriod = defaultFastPeriod
	}
	if r.SlowPeriod <= 0 {
		r.SlowPeriod = defaultSlowPeriod
	}
	if r.SignalPeriod <= 0 {
		r.SignalPeriod = defaultSignalPeriod
	}
	if r.StdDev <= 0 {
		r.StdDev = defaultStdDev
	}
}

type CandleSource interface {
	Candles(ctx context.Context, exchangeID string, q domain.CandleQuery) ([]domain.Candle, error)
}

type IndicatorService struct {
	tracer  trace.Tracer
	candles CandleSource
	logger  *slog.Logger
}

func NewIndicatorService(tracer trace.Tracer, candles CandleSource, logger *slog.Logger) *IndicatorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndicatorService{tracer: tracer, candles: candles, logger: logger}
}

// Calculate returns one entry per requested indicator, keyed by the name as
// given. Indicators that fail map to nil.
func (s *IndicatorService) Calculate(ctx context.Context, req IndicatorRequest) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "indicator-service.calculate")
	defer span.End()

	req.applyDefaults()
	candles, err := s.candles.Candles(ctx, req.Exchange, req.Query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("candles", len(candles)), attribute.StringSlice("indicators", req.Indicators))

	in := InputFromCandles(candles)
	in.Period = req.Period
	in.FastPeriod = req.FastPeriod
	in.SlowPeriod = req.SlowPeriod
	in.SignalPeriod = req.SignalPeriod
	in.StdDev = req.StdDev

	out := make(map[string]any, len(req.Indicators))
	for _, name := range req.Indicators {
		v, err := indicator.Calculate(name, in)
		if err != nil {
			s.logger.Error("indicator calculation failed", "indicator", name, "err", err)
			out[name] = nil
			continue
		}
		out[name] = v
	}
	return out, nil
}

func InputFromCandles(candles []domain.Candle) indicator.Input {
	in := indicator.Input{
		Open:   make([]float64, len(candles)),
		High:   make([]float64, len(candles)),
		Low:    make([]float64, len(candles)),
		Close:  make([]float64, len(candles)),
		Volume: make([]float64, len(candles)),
	}
	for i, c := range candles {
		in.Open[i] = c.Open
		in.High[i] = c.High
		in.Low[i] = c.Low
		in.Close[i] = c.Close
		in.Volume[i] = c.Volume
	}
	in.Values = in.Close
	return in
}
