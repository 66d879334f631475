package indicator

import (
	"fmt"
	"sort"
	"strings"
)

type calcFunc func(Input) (any, error)

var registry = map[string]calcFunc{
	"ma":     calcSMA,
	"sma":    calcSMA,
	"ema":    calcEMA,
	"ema7":   fixedEMA(7),
	"ema30":  fixedEMA(30),
	"ema120": fixedEMA(120),
	"macd": func(in Input) (any, error) {
		return MACD(in.Values, in.FastPeriod, in.SlowPeriod, in.SignalPeriod)
	},
	"rsi": func(in Input) (any, error) {
		return RSI(in.Values, in.Period)
	},
	"bollingerbands": calcBollinger,
	"bb":             calcBollinger,
	"adx":            calcADX,
	"dmi":            calcADX,
	"stochastic": func(in Input) (any, error) {
		return Stochastic(in.High, in.Low, in.Close, in.Period, in.SignalPeriod)
	},
	"kdj": func(in Input) (any, error) {
		return KDJ(in.High, in.Low, in.Close, in.Period, in.SignalPeriod)
	},
	"cmf": func(in Input) (any, error) {
		return CMF(in.High, in.Low, in.Close, in.Volume, in.Period)
	},
	"obv": func(in Input) (any, error) {
		return OBV(in.Close, in.Volume)
	},
	"atr": func(in Input) (any, error) {
		return ATR(in.High, in.Low, in.Close, in.Period)
	},
	"mfi": func(in Input) (any, error) {
		return MFI(in.High, in.Low, in.Close, in.Volume, in.Period)
	},
	"volumespike": func(in Input) (any, error) {
		return VolumeSpike(in.Volume, in.Period), nil
	},
	"fundingrate": func(Input) (any, error) {
		return FundingRate(), nil
	},
	"onchainlargetransfer": func(Input) (any, error) {
		return OnChainLargeTransfer(), nil
	},
}

// Canonical lowercases name and drops spaces, underscores and hyphens,
// so "Bollinger Bands" and "bollinger_bands" resolve to the same entry.
func Canonical(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// Calculate dispatches to the indicator registered under name.
func Calculate(name string, in Input) (any, error) {
	fn, ok := registry[Canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, name)
	}
	return fn(in)
}

// Names lists every registered indicator name and alias.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func calcSMA(in Input) (any, error) { return SMA(in.Values, in.Period) }

func calcEMA(in Input) (any, error) { return EMA(in.Values, in.Period) }

func fixedEMA(period int) calcFunc {
	return func(in Input) (any, error) { return EMA(in.Values, period) }
}

func calcBollinger(in Input) (any, error) {
	return BollingerBands(in.Values, in.Period, in.StdDev)
}

func calcADX(in Input) (any, error) {
	return ADX(in.High, in.Low, in.Close, in.Period)
}
