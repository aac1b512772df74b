// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatMillions formats an amount as a compact millions figure, always
// rounding up. Below 10M one decimal is kept unless it is zero.
// e.g., 2500000 -> "2.5M", 2000000 -> "2M", 9999999 -> "10M", 0 -> "0M"
func FormatMillions(v float64) string {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0M"
	}

	if v < 10_000_000 {
		// Ceil in tenths of a million directly; dividing by 1e6 first and
		// scaling back up picks up float error (1.1e6 -> 1.2M).
		tenths := int64(math.Ceil(v / 100_000))
		if tenths%10 == 0 {
			return strconv.FormatInt(tenths/10, 10) + "M"
		}
		return fmt.Sprintf("%d.%dM", tenths/10, tenths%10)
	}

	return strconv.FormatInt(int64(math.Ceil(v/1_000_000)), 10) + "M"
}

// FormatAmount formats an amount with comma separators, rounded to the
// nearest whole unit.
func FormatAmount(v float64) string {
	return FormatNumber(int64(math.Round(v)))
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats an integer percent.
func FormatPercent(pct int) string {
	return strconv.Itoa(pct) + "%"
}

// FormatDuration formats an elapsed duration compactly, truncated to the
// second. e.g., 90m -> "1h 30m", 5m -> "5m", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d <= 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
