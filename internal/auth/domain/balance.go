package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cents is an amount in minor units. Balances never pass through floats.
type Cents int64

// DefaultStartingBalance is credited to every new account: 100.00.
const DefaultStartingBalance Cents = 10000

var ErrInvalidAmount = errors.New("domain: invalid amount")

// String renders c with exactly two decimals, e.g. "100.00" or "-0.50".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseAmount reads a decimal amount with at most two fractional digits,
// such as "100", "100.5" or "100.50".
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !allDigits(whole) || (hasFrac && (len(frac) == 0 || len(frac) > 2 || !allDigits(frac))) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > (1<<63-1)/100-1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	f, _ := strconv.ParseInt(frac, 10, 64)

	v := w*100 + f
	if neg {
		v = -v
	}
	return Cents(v), nil
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
