// Package instrument is the static futures contract catalog: tick size,
// tick value, point value, and multiplier per root symbol. Lookup accepts
// either a bare root ("MNQ") or a dated contract code ("MNQZ25").
package instrument

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownInstrument is returned when no spec exists for a symbol.
// Callers must treat this as a hard stop: price levels cannot be computed
// without tick data.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Spec describes one tradable futures instrument. Immutable after load.
// Invariant: TickValue/TickSize is the per-tick dollar value and is never
// zero for any catalog entry.
type Spec struct {
	Root       string
	Name       string
	TickSize   decimal.Decimal // minimum price increment
	TickValue  decimal.Decimal // dollar P&L per tick per contract
	PointValue decimal.Decimal // dollar value per full point
	Multiplier decimal.Decimal
	Category   Category
	Exchange   string
}

// Category groups instruments by asset class.
type Category string

const (
	MicroIndex   Category = "micro-index"
	Index        Category = "index"
	Energy       Category = "energy"
	Metals       Category = "metals"
	Agricultural Category = "agricultural"
	Treasury     Category = "treasury"
	Currency     Category = "currency"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var specs = map[string]Spec{
	// Micro E-mini index futures
	"MNQ": {Name: "Micro E-mini Nasdaq-100", TickSize: d("0.25"), TickValue: d("0.50"), PointValue: d("2"), Multiplier: d("2"), Category: MicroIndex, Exchange: "CME"},
	"MES": {Name: "Micro E-mini S&P 500", TickSize: d("0.25"), TickValue: d("1.25"), PointValue: d("5"), Multiplier: d("5"), Category: MicroIndex, Exchange: "CME"},
	"MYM": {Name: "Micro E-mini Dow", TickSize: d("1.0"), TickValue: d("0.50"), PointValue: d("0.50"), Multiplier: d("0.50"), Category: MicroIndex, Exchange: "CBOT"},
	"M2K": {Name: "Micro E-mini Russell 2000", TickSize: d("0.10"), TickValue: d("0.50"), PointValue: d("5"), Multiplier: d("5"), Category: MicroIndex, Exchange: "CME"},

	// Full-size E-mini index futures
	"ES":  {Name: "E-mini S&P 500", TickSize: d("0.25"), TickValue: d("12.50"), PointValue: d("50"), Multiplier: d("50"), Category: Index, Exchange: "CME"},
	"NQ":  {Name: "E-mini Nasdaq-100", TickSize: d("0.25"), TickValue: d("5.00"), PointValue: d("20"), Multiplier: d("20"), Category: Index, Exchange: "CME"},
	"YM":  {Name: "E-mini Dow ($5)", TickSize: d("1.0"), TickValue: d("5.00"), PointValue: d("5"), Multiplier: d("5"), Category: Index, Exchange: "CBOT"},
	"RTY": {Name: "E-mini Russell 2000", TickSize: d("0.10"), TickValue: d("5.00"), PointValue: d("50"), Multiplier: d("50"), Category: Index, Exchange: "CME"},

	// Energy
	"CL": {Name: "Crude Oil", TickSize: d("0.01"), TickValue: d("10.00"), PointValue: d("1000"), Multiplier: d("1000"), Category: Energy, Exchange: "NYMEX"},
	"NG": {Name: "Natural Gas", TickSize: d("0.001"), TickValue: d("10.00"), PointValue: d("10000"), Multiplier: d("10000"), Category: Energy, Exchange: "NYMEX"},
	"RB": {Name: "RBOB Gasoline", TickSize: d("0.0001"), TickValue: d("4.20"), PointValue: d("42000"), Multiplier: d("42000"), Category: Energy, Exchange: "NYMEX"},
	"HO": {Name: "Heating Oil", TickSize: d("0.0001"), TickValue: d("4.20"), PointValue: d("42000"), Multiplier: d("42000"), Category: Energy, Exchange: "NYMEX"},

	// Metals
	"GC": {Name: "Gold", TickSize: d("0.10"), TickValue: d("10.00"), PointValue: d("100"), Multiplier: d("100"), Category: Metals, Exchange: "COMEX"},
	"SI": {Name: "Silver", TickSize: d("0.005"), TickValue: d("25.00"), PointValue: d("5000"), Multiplier: d("5000"), Category: Metals, Exchange: "COMEX"},
	"HG": {Name: "Copper", TickSize: d("0.0005"), TickValue: d("12.50"), PointValue: d("25000"), Multiplier: d("25000"), Category: Metals, Exchange: "COMEX"},
	"PL": {Name: "Platinum", TickSize: d("0.10"), TickValue: d("5.00"), PointValue: d("50"), Multiplier: d("50"), Category: Metals, Exchange: "NYMEX"},

	// Agricultural
	"ZC": {Name: "Corn", TickSize: d("0.25"), TickValue: d("12.50"), PointValue: d("50"), Multiplier: d("50"), Category: Agricultural, Exchange: "CBOT"},
	"ZS": {Name: "Soybeans", TickSize: d("0.25"), TickValue: d("12.50"), PointValue: d("50"), Multiplier: d("50"), Category: Agricultural, Exchange: "CBOT"},
	"ZW": {Name: "Wheat", TickSize: d("0.25"), TickValue: d("12.50"), PointValue: d("50"), Multiplier: d("50"), Category: Agricultural, Exchange: "CBOT"},

	// Treasuries
	"ZN": {Name: "10-Year T-Note", TickSize: d("0.015625"), TickValue: d("15.625"), PointValue: d("1000"), Multiplier: d("1000"), Category: Treasury, Exchange: "CBOT"},
	"ZB": {Name: "30-Year T-Bond", TickSize: d("0.03125"), TickValue: d("31.25"), PointValue: d("1000"), Multiplier: d("1000"), Category: Treasury, Exchange: "CBOT"},
	"ZF": {Name: "5-Year T-Note", TickSize: d("0.0078125"), TickValue: d("7.8125"), PointValue: d("1000"), Multiplier: d("1000"), Category: Treasury, Exchange: "CBOT"},

	// Currencies
	"EUR": {Name: "Euro FX", TickSize: d("0.00005"), TickValue: d("6.25"), PointValue: d("125000"), Multiplier: d("125000"), Category: Currency, Exchange: "CME"},
	"GBP": {Name: "British Pound", TickSize: d("0.0001"), TickValue: d("6.25"), PointValue: d("62500"), Multiplier: d("62500"), Category: Currency, Exchange: "CME"},
	"JPY": {Name: "Japanese Yen", TickSize: d("0.0000005"), TickValue: d("6.25"), PointValue: d("12500000"), Multiplier: d("12500000"), Category: Currency, Exchange: "CME"},
}

func init() {
	for root, s := range specs {
		s.Root = root
		specs[root] = s
	}
}

// Root extracts the base root from a contract code: "MNQZ25" → "MNQ",
// "GCJ24" → "GC". The month letter in a dated code is itself uppercase, so a
// leading-letters cut would keep it ("MNQZ"); the catalog decides where the
// root ends. Symbols with no catalog entry fall back to the leading-letters
// cut so the caller can still track them by something stable.
func Root(symbol string) string {
	if s, err := Lookup(symbol); err == nil {
		return s.Root
	}
	symbol = strings.TrimSpace(symbol)
	i := 0
	for i < len(symbol) && symbol[i] >= 'A' && symbol[i] <= 'Z' {
		i++
	}
	return symbol[:i]
}

// Lookup resolves a root or dated contract code to its spec. Dated codes
// append a month letter and two-digit year to the root ("MNQZ25"), and some
// roots themselves contain a digit ("M2K"), so the longest catalog match on
// a raw prefix wins rather than a pure leading-letters cut.
func Lookup(symbol string) (Spec, error) {
	symbol = strings.TrimSpace(symbol)
	max := len(symbol)
	if max > 3 { // no catalog root is longer than 3 characters
		max = 3
	}
	for l := max; l > 0; l-- {
		if s, ok := specs[symbol[:l]]; ok {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, symbol)
}

// Supported reports whether a spec exists for the symbol.
func Supported(symbol string) bool {
	_, err := Lookup(symbol)
	return err == nil
}

// ByCategory returns all specs in a category, for settings UIs.
func ByCategory(c Category) []Spec {
	var out []Spec
	for _, s := range specs {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}
