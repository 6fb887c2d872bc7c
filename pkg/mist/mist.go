// Package mist converts between MIST base units and SUI display strings.
package mist

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PerSui is the number of MIST in one SUI.
const PerSui = 1_000_000_000

// Decimals is the number of fractional digits a SUI amount can carry.
const Decimals = 9

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than 9 decimals")
	ErrNotPositive   = errors.New("amount must be greater than zero")
)

// Format renders a MIST value in SUI with at most three decimals and no
// trailing zeros: 0 -> "0", 1_500_000_000 -> "1.5", 1_000_000_000 -> "1".
func Format(v uint64) string {
	return FormatPrecision(v, 3)
}

// FormatBalance renders a role balance.
func FormatBalance(v uint64) string { return Format(v) }

// FormatFee renders a skill fee.
func FormatFee(v uint64) string { return Format(v) }

// FormatPrecision renders v with at most precision decimals, rounding half
// up and trimming trailing zeros and a bare dot.
func FormatPrecision(v uint64, precision int) string {
	if v == 0 {
		return "0"
	}
	if precision < 0 {
		precision = 0
	}
	if precision > Decimals {
		precision = Decimals
	}

	unit := uint64(math.Pow10(Decimals - precision))
	scaled := v / unit
	if v%unit >= unit/2 && unit > 1 {
		scaled++
	}

	pow := uint64(math.Pow10(precision))
	whole := scaled / pow
	frac := scaled % pow

	if precision == 0 || frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fs := fmt.Sprintf("%0*d", precision, frac)
	fs = strings.TrimRight(fs, "0")
	return strconv.FormatUint(whole, 10) + "." + fs
}

// FormatFixed renders v with exactly precision decimals, as the balance
// sidebar does.
func FormatFixed(v uint64, precision int) string {
	s := FormatPrecision(v, precision)
	if precision <= 0 {
		return s
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + "." + strings.Repeat("0", precision)
	}
	return s + strings.Repeat("0", precision-(len(s)-dot-1))
}

// SanitizeAmount keeps digits and dots. It reports false when the result
// has more than one dot or more than nine decimals, in which case the input
// should be rejected as typed.
func SanitizeAmount(in string) (string, bool) {
	var b strings.Builder
	for _, r := range in {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	parts := strings.Split(out, ".")
	if len(parts) > 2 {
		return "", false
	}
	if len(parts) == 2 && len(parts[1]) > Decimals {
		return "", false
	}
	return out, true
}

// ParseAmount converts a SUI decimal string into MIST. The amount must be
// positive and carry at most nine decimals.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(frac, ".") {
		return 0, ErrInvalidAmount
	}
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if len(frac) > Decimals {
		return 0, ErrTooPrecise
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
		}
	}

	var w uint64
	if whole != "" {
		var err error
		w, err = strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}
	if w > math.MaxUint64/PerSui {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	var f uint64
	if frac != "" {
		padded := frac + strings.Repeat("0", Decimals-len(frac))
		var err error
		f, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}
	total := w*PerSui + f
	if total < w*PerSui {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	if total == 0 {
		return 0, ErrNotPositive
	}
	return total, nil
}
