package budget

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	nonNumeric     = regexp.MustCompile(`[^\d.]`)
	leadingNumeric = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)`)
	lakhsPerCrore  = decimal.NewFromInt(100)
)

// ParseCost converts a cost string such as "₹ 45 L" or "₹ 4.5" to crores.
// Unparsable or empty input yields 0.
func ParseCost(cost string) float64 {
	return parseCost(cost).InexactFloat64()
}

func parseCost(cost string) decimal.Decimal {
	if strings.TrimSpace(cost) == "" {
		return decimal.Zero
	}

	match := leadingNumeric.FindString(nonNumeric.ReplaceAllString(cost, ""))
	if match == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(strings.TrimSuffix(match, "."))
	if err != nil {
		return decimal.Zero
	}

	if isLakhs(unitMarker(cost)) {
		return value.Div(lakhsPerCrore)
	}
	return value
}

// unitMarker returns the run of letters that follows the last digit.
func unitMarker(cost string) string {
	last := strings.LastIndexFunc(cost, isDigit)
	if last < 0 {
		return ""
	}
	rest := strings.TrimSpace(cost[last+1:])
	end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func isLakhs(unit string) bool {
	return strings.HasPrefix(strings.ToUpper(unit), "L")
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
