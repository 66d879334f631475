package indicator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const defaultStochasticSignal = 3

// RSI uses Wilder smoothing and returns len(values)-period points.
func RSI(values []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: rsi period must be positive", ErrInsufficientInput)
	}
	if len(values) <= period {
		return Series{}, nil
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	out := make(Series, 0, len(values)-period)
	out = append(out, rsiFromAverages(avgGain, avgLoss))
	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(delta, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-delta, 0)) / float64(period)
		out = append(out, rsiFromAverages(avgGain, avgLoss))
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0:
		return 100
	case avgGain == 0:
		return 0
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// Stochastic returns %K for each full window and %D as the SMA of %K.
// A window with no price range has an undefined %K.
func Stochastic(high, low, close []float64, period, signal int) ([]StochasticPoint, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: stochastic period must be positive", ErrInsufficientInput)
	}
	if signal <= 0 {
		signal = defaultStochasticSignal
	}
	n := len(close)
	if n == 0 || !sameLength(n, high, low) {
		return nil, fmt.Errorf("%w: stochastic needs high, low and close of equal length", ErrInsufficientInput)
	}
	if n < period {
		return []StochasticPoint{}, nil
	}

	k := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		hh := floats.Max(high[i-period+1 : i+1])
		ll := floats.Min(low[i-period+1 : i+1])
		if hh == ll {
			k = append(k, math.NaN())
			continue
		}
		k = append(k, (close[i]-ll)/(hh-ll)*100)
	}

	out := make([]StochasticPoint, len(k))
	for i := range k {
		d := math.NaN()
		if i >= signal-1 {
			d = floats.Sum(k[i-signal+1:i+1]) / float64(signal)
		}
		out[i] = StochasticPoint{K: Value(k[i]), D: Value(d)}
	}
	return out, nil
}

// KDJ extends Stochastic with J = 3K - 2D.
func KDJ(high, low, close []float64, period, signal int) ([]KDJPoint, error) {
	stoch, err := Stochastic(high, low, close, period, signal)
	if err != nil {
		return nil, err
	}
	out := make([]KDJPoint, len(stoch))
	for i, p := range stoch {
		out[i] = KDJPoint{K: p.K, D: p.D, J: 3*p.K - 2*p.D}
	}
	return out, nil
}

// MFI returns len(close)-period money flow index values.
func MFI(high, low, close, volume []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: mfi period must be positive", ErrInsufficientInput)
	}
	n := len(close)
	if n == 0 || !sameLength(n, high, low, volume) {
		return nil, fmt.Errorf("%w: mfi needs high, low, close and volume of equal length", ErrInsufficientInput)
	}
	if n <= period {
		return Series{}, nil
	}

	typical := make([]float64, n)
	for i := range typical {
		typical[i] = (high[i] + low[i] + close[i]) / 3
	}
	positive := make([]float64, n)
	negative := make([]float64, n)
	for i := 1; i < n; i++ {
		flow := typical[i] * volume[i]
		switch {
		case typical[i] > typical[i-1]:
			positive[i] = flow
		case typical[i] < typical[i-1]:
			negative[i] = flow
		}
	}

	out := make(Series, 0, n-period)
	for i := period; i < n; i++ {
		pos := floats.Sum(positive[i-period+1 : i+1])
		neg := floats.Sum(negative[i-period+1 : i+1])
		if neg == 0 {
			out = append(out, 100)
			continue
		}
		out = append(out, 100-100/(1+pos/neg))
	}
	return out, nil
}
