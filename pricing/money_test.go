package pricing

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrDefault(t *testing.T) {
	assert.Equal(t, 12.5, ParseOrDefault("12.5", 0))
	assert.Equal(t, 12.5, ParseOrDefault("  12.50 USD", 0))
	assert.Equal(t, 0.75, ParseOrDefault(".75", 0))
	assert.Equal(t, -3.0, ParseOrDefault("-3", 0))
	assert.Equal(t, 1500.0, ParseOrDefault("1.5e3", 0))
	assert.Equal(t, 7.0, ParseOrDefault("abc", 7))
	assert.Equal(t, 7.0, ParseOrDefault("", 7))
	assert.Equal(t, 7.0, ParseOrDefault("$12", 7))
}

func TestParseOrDefaultClampsHugeValues(t *testing.T) {
	assert.Equal(t, MaxAmount, ParseOrDefault("1e308", 0))
	assert.Equal(t, MaxAmount, ParseOrDefault("1e400", 0))
	assert.Equal(t, -MaxAmount, ParseOrDefault("-1e400", 0))
	assert.Equal(t, 0.0, ParseOrDefault("1e-400", 7))

	b := Compute(Inputs{
		Cost:          ParseAmount("1e308"),
		Quantity:      ParseQuantity("1e308"),
		ApplySalesTax: true,
	}, ParseAmount("1e308"))
	assert.False(t, math.IsInf(b.Total, 0))
}

func TestParseAmountCoercesToZero(t *testing.T) {
	assert.Equal(t, 0.0, ParseAmount("n/a"))
	assert.Equal(t, 0.0, ParseAmount("-20"))
	assert.Equal(t, 99.99, ParseAmount("99.99"))
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 1, ParseQuantity(""))
	assert.Equal(t, 1, ParseQuantity("zero"))
	assert.Equal(t, 1, ParseQuantity("0"))
	assert.Equal(t, 1, ParseQuantity("-4"))
	assert.Equal(t, 2, ParseQuantity("2.9"))
	assert.Equal(t, 12, ParseQuantity("12 pcs"))
}

func TestRawNumberDecodesNumbersAndStrings(t *testing.T) {
	var payload struct {
		Cost     RawNumber  `json:"cost"`
		Quantity RawNumber  `json:"quantity"`
		Discount *RawNumber `json:"discount"`
		Missing  *RawNumber `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"cost":"120.50","quantity":3,"discount":null}`), &payload))

	assert.Equal(t, 120.5, payload.Cost.Amount())
	assert.Equal(t, 3, payload.Quantity.Quantity())
	assert.Nil(t, payload.Discount)
	assert.Nil(t, payload.Missing)

	var n RawNumber
	require.NoError(t, n.UnmarshalJSON([]byte("null")))
	assert.Equal(t, 0.0, n.Amount())
	assert.Equal(t, 1, n.Quantity())
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "$194.40", FormatCurrency(194.4))
	assert.Equal(t, "$1,234.50", FormatCurrency(1234.5))
	assert.Equal(t, "$1,000,000.00", FormatCurrency(1e6))
	assert.Equal(t, "$1.01", FormatCurrency(1.005))
	assert.Equal(t, "-$25.00", FormatCurrency(-25))
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 1.01, RoundCents(1.005))
	assert.Equal(t, 14.4, RoundCents(14.400000000000002))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "3/7/2025", FormatDate(time.Date(2025, time.March, 7, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}
