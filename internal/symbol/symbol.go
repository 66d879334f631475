// Package symbol converts trading pair names between the unified BASE/QUOTE
// form and the native market ids of each exchange.
package symbol

import (
	"fmt"
	"regexp"
	"strings"
)

type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// knownQuotes is ordered longest first so BTCUSDT splits on USDT, not USD.
var knownQuotes = []string{
	"FDUSD",
	"USDT", "USDC", "TUSD", "BUSD", "USDP", "DOGE",
	"DAI", "USD", "EUR", "GBP", "TRY", "BRL", "JPY", "AUD",
	"BTC", "ETH", "BNB", "SOL", "XRP", "TRX",
}

var separated = regexp.MustCompile(`^([A-Za-z0-9]+)[/_:\-]([A-Za-z0-9]+)$`)

// Parse accepts BTC/USDT, BTC_USDT, BTC-USDT, BTC:USDT and concatenated
// forms such as BTCUSDT.
func Parse(raw string) (Pair, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Pair{}, fmt.Errorf("symbol is required")
	}
	if m := separated.FindStringSubmatch(s); m != nil {
		return Pair{Base: strings.ToUpper(m[1]), Quote: strings.ToUpper(m[2])}, nil
	}

	upper := strings.ToUpper(s)
	for _, q := range knownQuotes {
		if len(upper) > len(q) && strings.HasSuffix(upper, q) {
			return Pair{Base: strings.TrimSuffix(upper, q), Quote: q}, nil
		}
	}
	return Pair{}, fmt.Errorf("unrecognized symbol: %q", raw)
}

// Format renders p as the exchange's native market id. Ids without a
// native form get the unified BASE/QUOTE.
func Format(p Pair, exchangeID string) string {
	switch strings.ToLower(strings.TrimSpace(exchangeID)) {
	case "binance", "binanceus":
		return p.Base + p.Quote
	default:
		return p.String()
	}
}

// Adapt rewrites raw for exchangeID. Input that cannot be parsed is returned
// unchanged so the exchange can report the error itself.
func Adapt(raw, exchangeID string) string {
	if raw == "" || exchangeID == "" {
		return raw
	}
	p, err := Parse(raw)
	if err != nil {
		return raw
	}
	return Format(p, exchangeID)
}

// Unified returns the BASE/QUOTE form of raw, or raw itself when it cannot
// be parsed.
func Unified(raw string) string {
	p, err := Parse(raw)
	if err != nil {
		return raw
	}
	return p.String()
}
