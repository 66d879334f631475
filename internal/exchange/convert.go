package exchange

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// num parses an exchange decimal string. Empty or malformed values are 0.
func num(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// formatDecimal renders f without exponent or trailing zeros.
func formatDecimal(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// looseFloat accepts both JSON numbers and quoted decimal strings.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	v, _ := d.Float64()
	*f = looseFloat(v)
	return nil
}

var binanceOrderStatus = map[string]string{
	"NEW":              "open",
	"PARTIALLY_FILLED": "open",
	"PENDING_NEW":      "open",
	"FILLED":           "closed",
	"CANCELED":         "canceled",
	"PENDING_CANCEL":   "canceling",
	"REJECTED":         "rejected",
	"EXPIRED":          "expired",
	"EXPIRED_IN_MATCH": "expired",
}

func normalizeStatus(raw string) string {
	if s, ok := binanceOrderStatus[strings.ToUpper(raw)]; ok {
		return s
	}
	return strings.ToLower(raw)
}
