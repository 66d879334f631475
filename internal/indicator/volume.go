package indicator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const defaultSpikePeriod = 3

// OBV returns one cumulative on-balance volume value per bar, starting at 0.
func OBV(close, volume []float64) (Series, error) {
	n := len(close)
	if n == 0 || !sameLength(n, volume) {
		return nil, fmt.Errorf("%w: obv needs close and volume of equal length", ErrInsufficientInput)
	}
	out := make(Series, n)
	for i := 1; i < n; i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out, nil
}

// CMF returns Chaikin money flow aligned with the input. The first
// period-1 values are undefined.
func CMF(high, low, close, volume []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: cmf period must be positive", ErrInsufficientInput)
	}
	n := len(close)
	if n == 0 || !sameLength(n, high, low, volume) {
		return nil, fmt.Errorf("%w: cmf needs high, low, close and volume of equal length", ErrInsufficientInput)
	}

	flow := make([]float64, n)
	for i := range flow {
		hl := high[i] - low[i]
		if hl == 0 {
			continue
		}
		flow[i] = ((close[i] - low[i]) - (high[i] - close[i])) / hl * volume[i]
	}

	out := Series(nanSeries(n))
	for i := period - 1; i < n; i++ {
		vol := floats.Sum(volume[i-period+1 : i+1])
		if vol == 0 {
			out[i] = 0
			continue
		}
		out[i] = floats.Sum(flow[i-period+1:i+1]) / vol
	}
	return out, nil
}

// VolumeSpike reports whether the latest volume exceeds twice the mean of
// the period volumes before it.
func VolumeSpike(volume []float64, period int) bool {
	if period <= 0 {
		period = defaultSpikePeriod
	}
	if len(volume) <= period {
		return false
	}
	latest := volume[len(volume)-1]
	prior := volume[len(volume)-1-period : len(volume)-1]
	return latest > 2*stat.Mean(prior, nil)
}

// FundingRate is not derivable from candles; the fundingRate tool reads
// it from the exchange instead.
func FundingRate() *float64 { return nil }

// OnChainLargeTransfer needs an on-chain data source, which is not wired.
func OnChainLargeTransfer() bool { return false }
