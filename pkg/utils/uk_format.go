// Package utils provides common utility functions for lsewatch.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatGBP formats a number in pounds sterling with comma grouping (£1,234,567.89).
func FormatGBP(amount float64) string {
	if amount < 0 {
		return "-£" + FormatGrouped(-amount)
	}
	return "£" + FormatGrouped(amount)
}

// FormatGrouped formats a number with comma grouping and two decimals, as the
// exchange shows index levels (7,452.10).
func FormatGrouped(v float64) string {
	negative := v < 0
	v = math.Abs(v)

	whole := int64(v)
	hundredths := int64(math.Round((v - float64(whole)) * 100))
	if hundredths == 100 {
		whole++
		hundredths = 0
	}

	formatted := fmt.Sprintf("%s.%02d", groupThousands(whole), hundredths)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// FormatGBPCompact formats a number in compact notation.
// e.g., 1500000 → "£1.5m", 123400000000 → "£123.4bn"
func FormatGBPCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := "£"
	if negative {
		prefix = "-£"
	}

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s%str", prefix, formatWithDecimals(amount/1e12))
	case amount >= 1e9:
		return fmt.Sprintf("%s%sbn", prefix, formatWithDecimals(amount/1e9))
	case amount >= 1e6:
		return fmt.Sprintf("%s%sm", prefix, formatWithDecimals(amount/1e6))
	case amount >= 1e3:
		return fmt.Sprintf("%s%sk", prefix, formatWithDecimals(amount/1e3))
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// groupThousands formats an integer with comma grouping every 3 digits.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
