package indicator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const defaultStdDev = 2.0

// BollingerBands uses the population standard deviation of each window.
func BollingerBands(values []float64, period int, stdDev float64) ([]BandPoint, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: bollinger period must be positive", ErrInsufficientInput)
	}
	if stdDev <= 0 {
		stdDev = defaultStdDev
	}
	if len(values) < period {
		return []BandPoint{}, nil
	}

	out := make([]BandPoint, 0, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := stat.Mean(window, nil)
		sd := stat.PopStdDev(window, nil)
		upper := mean + stdDev*sd
		lower := mean - stdDev*sd
		pb := math.NaN()
		if upper != lower {
			pb = (values[i] - lower) / (upper - lower)
		}
		out = append(out, BandPoint{
			Middle: Value(mean),
			Upper:  Value(upper),
			Lower:  Value(lower),
			PB:     Value(pb),
		})
	}
	return out, nil
}

// ATR is the Wilder-smoothed true range and returns len(close)-period values.
func ATR(high, low, close []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: atr period must be positive", ErrInsufficientInput)
	}
	n := len(close)
	if n == 0 || !sameLength(n, high, low) {
		return nil, fmt.Errorf("%w: atr needs high, low and close of equal length", ErrInsufficientInput)
	}
	if n <= period {
		return Series{}, nil
	}

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(high[i], low[i], close[i-1])
	}

	out := make(Series, 0, n-period)
	atr := floats.Sum(tr[1:period+1]) / float64(period)
	out = append(out, atr)
	for i := period + 1; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out = append(out, atr)
	}
	return out, nil
}
