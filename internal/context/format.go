// internal/context/format.go
package context

import (
	"math"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const (
	twoDecimals = "#,###.##"
	noDecimals  = "#,###."

	overviewLimit = 400
)

// currency renders v as dollars with thousands separators and two decimals.
// The sign goes before the dollar sign.
func currency(v float64) string {
	v = round(v, 2)
	if v < 0 {
		return "-$" + humanize.FormatFloat(twoDecimals, -v)
	}
	return "$" + humanize.FormatFloat(twoDecimals, v)
}

// decimal renders v with thousands separators and two decimals.
func decimal(v float64) string {
	return humanize.FormatFloat(twoDecimals, round(v, 2))
}

// integer renders v rounded with thousands separators.
func integer(v float64) string {
	return humanize.FormatFloat(noDecimals, round(v, 0))
}

// round rounds v to places decimals. Values that round to zero lose their
// sign so they never render as "-0.00".
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	v = math.Round(v*p) / p
	if v == 0 {
		return 0
	}
	return v
}

// truncate cuts s to limit characters and marks the cut with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
