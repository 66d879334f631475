// Package indicator implements the technical indicators exposed through the
// calculateIndicators tool. Leading values that are not yet defined are NaN
// and encode to JSON null.
package indicator

import (
	"errors"
	"math"
	"strconv"
)

var (
	ErrUnknownIndicator  = errors.New("unknown indicator")
	ErrInsufficientInput = errors.New("insufficient indicator input")
)

// Input carries the price series for one calculation. Values holds the
// series used by close-only indicators; the OHLCV slices feed the rest.
type Input struct {
	Values []float64
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	Period       int
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
	StdDev       float64
}

// Value is a float that encodes NaN and infinities as null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (v Value) Valid() bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Series is a float slice that encodes undefined entries as null.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, len(s)*8+2)
	buf = append(buf, '[')
	for i, f := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

type MACDPoint struct {
	MACD      Value `json:"MACD"`
	Signal    Value `json:"signal"`
	Histogram Value `json:"histogram"`
}

type BandPoint struct {
	Middle Value `json:"middle"`
	Upper  Value `json:"upper"`
	Lower  Value `json:"lower"`
	PB     Value `json:"pb"`
}

type ADXPoint struct {
	ADX Value `json:"adx"`
	PDI Value `json:"pdi"`
	MDI Value `json:"mdi"`
}

type StochasticPoint struct {
	K Value `json:"k"`
	D Value `json:"d"`
}

type KDJPoint struct {
	K Value `json:"k"`
	D Value `json:"d"`
	J Value `json:"j"`
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func sameLength(n int, series ...[]float64) bool {
	for _, s := range series {
		if len(s) != n {
			return false
		}
	}
	return true
}
