package scraper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseRate extracts a numeric exchange rate from rendered element text such
// as "1688.5590 ARS". It tolerates both thousands-separator conventions:
// whichever of '.' and ',' appears last is taken as the decimal separator,
// and a lone ',' is decimal only when the trailing group is at most two
// digits ("1688,56" vs "1,688"). Values outside the (min, max) open interval
// indicate a page-structure or parsing problem, not a market move, and are
// rejected.
func ParseRate(text string, min, max decimal.Decimal) (decimal.Decimal, bool) {
	cleaned := stripNonNumeric(strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")

	switch {
	case hasDot && hasComma:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		groups := strings.Split(cleaned, ",")
		if len(groups[len(groups)-1]) <= 2 {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}

	if value.Cmp(min) <= 0 || value.Cmp(max) >= 0 {
		return decimal.Decimal{}, false
	}

	return value, true
}

func stripNonNumeric(text string) string {
	var builder strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
