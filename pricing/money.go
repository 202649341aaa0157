// pricing/money.go
package pricing

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Largest quantity accepted from raw input.
const maxQuantity = math.MaxInt32

// MaxAmount bounds every parsed number so that cost times quantity plus tax
// stays finite.
const MaxAmount = 1e12

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?`)

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// ParseOrDefault reads the leading number of raw (so "12.50 USD" gives 12.5).
// Anything without a usable number falls back to def; no error is reported.
// Values beyond MaxAmount in either direction are clamped to it.
func ParseOrDefault(raw string, def float64) float64 {
	match := leadingNumber.FindString(strings.TrimSpace(raw))
	if match == "" {
		return def
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return def
	}
	if math.IsNaN(v) {
		return def
	}
	return math.Max(-MaxAmount, math.Min(MaxAmount, v))
}

// ParseAmount parses a cost, discount or rate field. Negative and
// unparsable values become 0.
func ParseAmount(raw string) float64 {
	return NonNegative(ParseOrDefault(raw, 0))
}

// ParseQuantity parses the integer part of raw with a floor of 1.
func ParseQuantity(raw string) int {
	return NormalizeQuantity(ParseOrDefault(raw, 1))
}

// NormalizeQuantity truncates v to an integer quantity of at least 1.
func NormalizeQuantity(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if v > maxQuantity {
		return maxQuantity
	}
	return int(math.Trunc(v))
}

// NonNegative clamps v to zero.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// RawNumber is a numeric form field as typed by the user. It decodes from
// either a JSON number or a JSON string and is parsed leniently later.
type RawNumber string

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = RawNumber(s)
		return nil
	}
	*n = RawNumber(b)
	return nil
}

// Amount parses n as a non-negative amount.
func (n RawNumber) Amount() float64 { return ParseAmount(string(n)) }

// Quantity parses n as a quantity (minimum 1).
func (n RawNumber) Quantity() int { return ParseQuantity(string(n)) }

// Float parses n with the given fallback, keeping the sign.
func (n RawNumber) Float(def float64) float64 { return ParseOrDefault(string(n), def) }

// RoundCents rounds half away from zero to two decimals. Only used for display.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatCurrency renders v as US dollars, e.g. "$1,234.50" or "-$3.00".
func FormatCurrency(v float64) string {
	rounded := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + "$" + usPrinter.Sprintf("%.2f", rounded.InexactFloat64())
}

// FormatDate renders t as a US short date (1/2/2006).
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("1/2/2006")
}
