package utils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTokenDecimals is assumed when a token's decimals cannot be resolved.
const DefaultTokenDecimals = 18

// FromSmallestUnit converts a raw on-chain amount (integer string, possibly in exponent
// notation) into token units. Example: raw="1234500000000000000", decimals=18 => 1.2345.
// Unparseable input yields zero.
func FromSmallestUnit(raw string, decimals int) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	if decimals < 0 {
		decimals = 0
	}
	return amount.Shift(int32(-decimals))
}

// FormatBigInt renders amount/10^decimals without trailing zeros.
func FormatBigInt(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromBigInt(amount, int32(-decimals)).String()
}
