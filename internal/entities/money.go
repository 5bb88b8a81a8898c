package entities

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-precision amount held as integer cents.
type Money int64

var ErrInvalidMoney = errors.New("invalid money amount")

// ParseMoney parses "12", "12.5" or "12.50" (optionally signed) into cents.
// More than two decimal places is rejected rather than rounded.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two decimal places", ErrInvalidMoney)
	}
	if strings.Trim(frac, "0123456789") != "" || strings.Trim(whole, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}

	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidMoney, s)
	}
	total := units*100 + cents
	if negative {
		total = -total
	}
	return Money(total), nil
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	sign, abs := "", uint64(m)
	if m < 0 {
		// uint64 keeps the magnitude of math.MinInt64, which -m cannot.
		sign, abs = "-", -uint64(m)
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
