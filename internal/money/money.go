// Package money holds the monetary value model used across the client.
// Amounts are always integer counts of a currency's minor unit (cents for
// USD); conversion to a displayable major-unit value happens only at the
// formatting boundary, never in intermediate arithmetic.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money is a value object: an amount in minor units plus an ISO 4217-like
// currency code. The zero value is "no money".
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Mul scales the amount by a quantity, keeping the currency.
func (m Money) Mul(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// currencyFractionDigits maps currency codes with a non-default exponent.
// Everything absent uses the default of 2.
var currencyFractionDigits = map[string]int{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"KWD": 3,
	"BHD": 3,
	"JOD": 3,
	"OMR": 3,
	"TND": 3,
}

// currencySymbols covers the codes the client renders with a symbol prefix.
// Codes outside this map fall back to the "<major> <CODE>" form.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"KRW": "₩",
	"VND": "₫",
	"CAD": "$",
	"AUD": "$",
}

// FractionDigits returns the number of fractional digits for a currency
// code. The lookup is case-insensitive and defaults to 2 for empty or
// unrecognized codes.
func FractionDigits(cur string) int {
	if cur == "" {
		return 2
	}
	if d, ok := currencyFractionDigits[strings.ToUpper(cur)]; ok {
		return d
	}
	return 2
}

// FormatMinor renders a minor-unit amount as a display string using the
// en-US locale. See FormatMinorLocale.
func FormatMinor(amountMinor int64, cur string) string {
	return FormatMinorLocale(amountMinor, cur, "en-US")
}

// FormatMinorLocale renders a minor-unit amount for display. The amount is
// divided by 10^FractionDigits(cur) to obtain the major-unit value; that is
// the only point where a float appears. With a currency the result is a
// localized currency string (symbol plus grouping) when the code is a known
// ISO currency with a known symbol, otherwise the fallback
// "<major> <CODE>". With no currency the result is a plain fixed-point
// number with the default digit count.
func FormatMinorLocale(amountMinor int64, cur, locale string) string {
	digits := FractionDigits(cur)
	major := float64(amountMinor) / math.Pow10(digits)

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	p := message.NewPrinter(tag)
	formatted := p.Sprintf("%v", number.Decimal(major,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits)))

	if cur == "" {
		return formatted
	}

	code := strings.ToUpper(cur)
	if _, err := currency.ParseISO(code); err == nil {
		if sym, ok := currencySymbols[code]; ok {
			return sym + formatted
		}
	}
	return fmt.Sprintf("%s %s", formatted, code)
}

// Line is one summable amount with its currency label.
type Line struct {
	AmountMinor int64
	Currency    string
}

// Sum adds minor-unit amounts across lines. An empty input yields
// {0, ""}. The result carries the currency of the first line; mixed
// currencies sum numerically under that label without complaint, matching
// the single-currency catalog assumption. Callers that must not mislabel a
// mixed cart use SumStrict.
func Sum(lines []Line) Line {
	if len(lines) == 0 {
		return Line{}
	}
	total := Line{Currency: lines[0].Currency}
	for _, l := range lines {
		total.AmountMinor += l.AmountMinor
	}
	return total
}

// ErrMixedCurrency reports a cart mixing more than one currency.
var ErrMixedCurrency = errors.New("cart mixes more than one currency")

// SumStrict adds minor-unit amounts across lines, failing on mixed
// currencies instead of mislabeling the total.
func SumStrict(lines []Line) (Line, error) {
	if len(lines) == 0 {
		return Line{}, nil
	}
	total := Line{Currency: lines[0].Currency}
	for _, l := range lines {
		if !strings.EqualFold(l.Currency, total.Currency) {
			return Line{}, ErrMixedCurrency
		}
		total.AmountMinor += l.AmountMinor
	}
	return total, nil
}
