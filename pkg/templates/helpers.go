package templates

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
)

// Money formats a currency amount with thousands separators and two decimals
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Percent formats a value already expressed in percent (12.34 -> "12.3%")
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%.1f%%", v)
}

// Ratio formats a fraction as a percentage (0.8734 -> "87.3%")
func Ratio(v float64) string {
	return Percent(v * 100)
}

// Rate formats a decimal rate such as an expected return (0.058 -> "5.8%")
func Rate(v float64) string {
	return Ratio(v)
}

// Ordinal renders 1 as "1st", 2 as "2nd"
func Ordinal(n int) string {
	return humanize.Ordinal(n)
}

// Plural picks the singular or plural form of a noun for n
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// HumanField turns a profile field name into words ("target_retirement_income" -> "target retirement income")
func HumanField(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// HumanList joins items as "a, b and c"
func HumanList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// FuncMap exposes the helpers to templates
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":   Money,
		"pct":     Percent,
		"ratio":   Ratio,
		"rate":    Rate,
		"ordinal": Ordinal,
		"plural":  Plural,
		"field":   HumanField,
		"fields": func(items []string) string {
			words := make([]string, len(items))
			for i, f := range items {
				words[i] = HumanField(f)
			}
			return HumanList(words)
		},
		"list":  HumanList,
		"add":   func(a, b int) int { return a + b },
		"years": func(months int) string { return fmt.Sprintf("%.1f", float64(months)/12) },
		"upper": strings.ToUpper,
	}
}
