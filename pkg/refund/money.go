package refund

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies lists currencies whose minor unit is the major unit.
// Every other currency is treated as having two decimal places.
var zeroDecimalCurrencies = map[string]struct{}{
	"IDR": {},
	"JPY": {},
	"KRW": {},
	"VND": {},
	"CLP": {},
}

// Exponent returns the number of decimal places of the currency's minor unit.
func Exponent(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return 0
	}
	return 2
}

// ToMinor converts a decimal amount to integer minor units, rounding half up.
func ToMinor(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(Exponent(currency)).Round(0).IntPart()
}

// FromMinor converts integer minor units back into a decimal amount.
func FromMinor(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Exponent(currency))
}

// applyBasisPoints returns amount*bps/10000 rounded half up. amount must be >= 0.
func applyBasisPoints(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

// half returns amount/2 rounded half up. amount must be >= 0.
func half(amount int64) int64 {
	return (amount + 1) / 2
}
