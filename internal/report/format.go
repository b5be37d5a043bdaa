// Package report renders assessments as human-readable text for the CLI
// and TUI surfaces.
package report

import (
	"fmt"
	"strings"
)

// FormatMoney formats a rupee amount with comma separators and two decimals.
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	intPart, fracPart, _ := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		start := len(intPart) % 3
		if start > 0 {
			b.WriteString(intPart[:start])
		}
		for i := start; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	out := "₹" + intPart + "." + fracPart
	if neg {
		return "-" + out
	}
	return out
}

// FormatDelta formats a net delta value with four decimals and an explicit
// sign for positive values.
func FormatDelta(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.4f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

// FormatQuantity formats a contract quantity, dropping the decimals when the
// value is whole.
func FormatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}
