package indicator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	defaultFastPeriod   = 12
	defaultSlowPeriod   = 26
	defaultSignalPeriod = 9
)

// SMA returns len(values)-period+1 simple moving averages.
func SMA(values []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: sma period must be positive", ErrInsufficientInput)
	}
	if len(values) < period {
		return Series{}, nil
	}
	out := make(Series, 0, len(values)-period+1)
	sum := floats.Sum(values[:period])
	out = append(out, sum/float64(period))
	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out = append(out, sum/float64(period))
	}
	return out, nil
}

// EMA is seeded with the SMA of the first window and has the same length as SMA.
func EMA(values []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: ema period must be positive", ErrInsufficientInput)
	}
	return Series(emaSeeded(values, period)), nil
}

func emaSeeded(values []float64, period int) []float64 {
	if len(values) < period {
		return []float64{}
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)
	prev := floats.Sum(values[:period]) / float64(period)
	out = append(out, prev)
	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out = append(out, prev)
	}
	return out
}

// MACD emits one point per defined slow EMA value. Signal and histogram stay
// undefined until the signal EMA has a full window.
func MACD(values []float64, fast, slow, signal int) ([]MACDPoint, error) {
	if fast <= 0 {
		fast = defaultFastPeriod
	}
	if slow <= 0 {
		slow = defaultSlowPeriod
	}
	if signal <= 0 {
		signal = defaultSignalPeriod
	}
	if fast >= slow {
		return nil, fmt.Errorf("%w: macd fast period %d must be below slow period %d", ErrInsufficientInput, fast, slow)
	}

	fastEMA := emaSeeded(values, fast)
	slowEMA := emaSeeded(values, slow)
	if len(slowEMA) == 0 {
		return []MACDPoint{}, nil
	}

	offset := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}
	signalEMA := emaSeeded(line, signal)

	out := make([]MACDPoint, len(line))
	for i := range line {
		p := MACDPoint{MACD: Value(line[i]), Signal: Value(math.NaN()), Histogram: Value(math.NaN())}
		if j := i - (signal - 1); j >= 0 && j < len(signalEMA) {
			p.Signal = Value(signalEMA[j])
			p.Histogram = Value(line[i] - signalEMA[j])
		}
		out[i] = p
	}
	return out, nil
}

// ADX computes Wilder's directional movement index. The first point is
// emitted once ADX itself is defined, at index 2*period-1 of the input.
func ADX(high, low, close []float64, period int) ([]ADXPoint, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: adx period must be positive", ErrInsufficientInput)
	}
	n := len(close)
	if n == 0 || !sameLength(n, high, low) {
		return nil, fmt.Errorf("%w: adx needs high, low and close of equal length", ErrInsufficientInput)
	}
	if n < 2*period {
		return []ADXPoint{}, nil
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(high[i], low[i], close[i-1])
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothing over the raw sums, starting with the first full window.
	smTR := floats.Sum(tr[1 : period+1])
	smPlus := floats.Sum(plusDM[1 : period+1])
	smMinus := floats.Sum(minusDM[1 : period+1])

	var dx []float64
	var pdi, mdi []float64
	emit := func() {
		p, m := 0.0, 0.0
		if smTR != 0 {
			p = 100 * smPlus / smTR
			m = 100 * smMinus / smTR
		}
		d := 0.0
		if p+m != 0 {
			d = 100 * math.Abs(p-m) / (p + m)
		}
		pdi = append(pdi, p)
		mdi = append(mdi, m)
		dx = append(dx, d)
	}
	emit()
	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		emit()
	}

	out := make([]ADXPoint, 0, len(dx)-period+1)
	adx := floats.Sum(dx[:period]) / float64(period)
	out = append(out, ADXPoint{ADX: Value(adx), PDI: Value(pdi[period-1]), MDI: Value(mdi[period-1])})
	for i := period; i < len(dx); i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
		out = append(out, ADXPoint{ADX: Value(adx), PDI: Value(pdi[i]), MDI: Value(mdi[i])})
	}
	return out, nil
}

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
