package token

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatUnits renders an amount of token base units as a decimal string
// scaled by decimals, with trailing fractional zeros trimmed. No floats are
// involved, so no precision is lost.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	sign := ""
	abs := new(big.Int).Abs(amount)
	if amount.Sign() < 0 {
		sign = "-"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))

	fracRaw := frac.String()
	if pad := int(decimals) - len(fracRaw); pad > 0 {
		fracRaw = strings.Repeat("0", pad) + fracRaw
	}
	fracStr := strings.TrimRight(fracRaw, "0")
	if fracStr == "" {
		return sign + whole.String()
	}
	return sign + whole.String() + "." + fracStr
}

// ParseUnits converts a decimal string into token base units.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}

	sign := 1
	if strings.HasPrefix(value, "-") {
		sign = -1
		value = value[1:]
	}

	parts := strings.SplitN(value, ".", 2)
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("too many decimal places: %s", value)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	combined := whole + frac
	amount, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	if sign < 0 {
		amount.Neg(amount)
	}
	return amount, nil
}
