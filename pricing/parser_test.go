package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeparatorFormats(t *testing.T) {
	parser := NewParser()

	cases := []struct {
		text   string
		value  float64
		symbol string
	}{
		// Same value in both major separator conventions.
		{"$1,234.56", 1234.56, "$"},
		{"1.234,56 €", 1234.56, "€"},
		{"1 234,56", 1234.56, ""},
		{"1 234,56", 1234.56, ""},

		{"$0.99", 0.99, "$"},
		{"CA$20.99", 20.99, "CA$"},
		{"US$ 5.99", 5.99, "US$"},
		{"R$ 9,90", 9.9, "R$"},
		{"6,99 €", 6.99, "€"},
		{"£2.49", 2.49, "£"},
		{"₹75", 75, "₹"},
		{"¥68", 68, "¥"},
		{"Price: $4.99", 4.99, "$"},
		{"20.99/month", 20.99, ""},
		{"59 kr/md.", 59, "kr"},

		// Repeated separators of one kind are grouping.
		{"1.234.567", 1234567, ""},
		{"1,234,567", 1234567, ""},

		// Mojibake artifacts are stripped before parsing.
		{"Â£2.49", 2.49, "£"},
		{"â€¯39,00 kr", 39, "kr"},
	}

	for _, test := range cases {
		parsed, err := parser.Parse(test.text, "US")
		require.NoError(t, err, "input %q", test.text)
		require.InDelta(t, test.value, parsed.Value, 1e-9, "input %q", test.text)
		require.Equal(t, test.symbol, parsed.RawSymbol, "input %q", test.text)
	}
}

func TestParseFreeEntries(t *testing.T) {
	parser := NewParser()

	for _, text := range []string{"Free", "free", "FREE", "Gratis", "gratis"} {
		parsed, err := parser.Parse(text, "DE")
		require.NoError(t, err, "input %q", text)
		require.Zero(t, parsed.Value)
		require.Empty(t, parsed.RawSymbol)
	}
}

func TestParseFailures(t *testing.T) {
	parser := NewParser()

	cases := []struct {
		text string
		err  error
	}{
		{"", ErrNoDigits},
		{"Coming soon", ErrNoDigits},
		{"$", ErrNoDigits},
		{"n/a", ErrNoDigits},
	}

	for _, test := range cases {
		_, err := parser.Parse(test.text, "US")
		require.ErrorIs(t, err, test.err, "input %q", test.text)
	}
}

func TestParseNeverNegative(t *testing.T) {
	parser := NewParser()

	// A leading minus is not part of the numeric core.
	parsed, err := parser.Parse("-5.99", "US")
	require.NoError(t, err)
	require.GreaterOrEqual(t, parsed.Value, 0.0)
}
