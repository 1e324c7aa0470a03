package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is amount in minor units (cents) of currency.
// All supported currencies have two decimal places.
type Money struct {
	Minor    int64
	Currency string
}

func NewMoney(minor int64, currency string) Money {
	return Money{Minor: minor, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// ParseMoney parses decimal amount with either dot or comma
// as decimal separator. Spaces are treated as thousands separators.
func ParseMoney(s string, currency string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return Money{}, fmt.Errorf("empty amount")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	sign := int64(1)
	if s[0] == '-' {
		sign, s = -1, s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return Money{}, fmt.Errorf("too many decimal places in %q", s)
	}
	frac += strings.Repeat("0", 2-len(frac))
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(sign*(w*100+f), currency), nil
}

func (m Money) IsPositive() bool {
	return m.Minor > 0
}

func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor, Currency: m.Currency}
}

// Decimal formats amount as 1234.50
func (m Money) Decimal() string {
	return m.format(".")
}

// DecimalComma formats amount as 1234,50
func (m Money) DecimalComma() string {
	return m.format(",")
}

func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}

func (m Money) format(sep string) string {
	v, sign := m.Minor, ""
	if v < 0 {
		v, sign = -v, "-"
	}
	return fmt.Sprintf("%s%d%s%02d", sign, v/100, sep, v%100)
}
