package client

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDollars converts a decimal-dollar user input like "150.00" or "89.5"
// to integer cents, rounding to the nearest cent. Negative amounts are
// rejected.
func ParseDollars(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("price must not be negative")
	}
	return int64(math.Round(v * 100)), nil
}

// FormatCents renders integer cents as a dollar string: 15000 -> "$150.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
