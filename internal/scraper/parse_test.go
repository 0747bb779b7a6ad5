package scraper

import (
	"testing"

	"github.com/shopspring/decimal"
)

func defaultBounds() (decimal.Decimal, decimal.Decimal) {
	return decimal.NewFromInt(100), decimal.NewFromInt(10000)
}

func TestParseRateFormats(t *testing.T) {
	min, max := defaultBounds()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain decimal with unit", "1688.5590 ARS", "1688.559"},
		{"dot thousands comma decimal", "1.800,25", "1800.25"},
		{"comma thousands dot decimal", "1,688.56", "1688.56"},
		{"comma decimal", "1688,56", "1688.56"},
		{"comma thousands only", "1,688", "1688"},
		{"surrounding noise", "  $ 1.688,56 ARS/EUR ", "1688.56"},
		{"integer", "1700", "1700"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseRate(tc.text, min, max)
			if !ok {
				t.Fatalf("ParseRate(%q) 应成功", tc.text)
			}
			want := decimal.RequireFromString(tc.want)
			if !got.Equal(want) {
				t.Fatalf("ParseRate(%q) = %s, want %s", tc.text, got, want)
			}
		})
	}
}

func TestParseRateRejects(t *testing.T) {
	min, max := defaultBounds()

	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"no digits", "ARS/EUR"},
		{"separators only", ".,"},
		{"multiple decimal points", "1.2.3,4,5"},
		{"exactly lower bound", "100"},
		{"exactly upper bound", "10000"},
		{"below range", "99.99"},
		{"above range", "10000.01"},
		{"thousands far above range", "50,000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, ok := ParseRate(tc.text, min, max); ok {
				t.Fatalf("ParseRate(%q) = %s, want rejection", tc.text, got)
			}
		})
	}
}

// Parsing an already-normalized value back through ParseRate must be a
// fixed point.
func TestParseRateIdempotent(t *testing.T) {
	min, max := defaultBounds()

	for _, text := range []string{"1688.5590 ARS", "1.800,25", "1688,56", "1,688"} {
		first, ok := ParseRate(text, min, max)
		if !ok {
			t.Fatalf("ParseRate(%q) 应成功", text)
		}
		second, ok := ParseRate(first.String(), min, max)
		if !ok {
			t.Fatalf("re-parse of %s should succeed", first)
		}
		if !first.Equal(second) {
			t.Fatalf("re-parse changed value: %s -> %s", first, second)
		}
	}
}
