package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/nie11kun/price-comparator/models"
)

// Parse failures.
var (
	ErrNoDigits      = errors.New("no digits found in price text")
	ErrInvalidNumber = errors.New("invalid numeric format")
)

// mojibakeFragments are UTF-8-read-as-Latin-1 artifacts seen on scraped
// pages. They are removed verbatim before parsing; "Â" on its own
// covers the common mangled non-breaking space ahead of a symbol.
var mojibakeFragments = []string{"â€¯", "â€‰", "Â"}

// exoticSpaces collapses the narrow/no-break space family into plain
// spaces so the separator logic only has to deal with one kind.
var exoticSpaces = strings.NewReplacer(
	" ", " ", // no-break space
	" ", " ", // narrow no-break space
	" ", " ", // thin space
	" ", " ", // figure space
	"​", "", // zero-width space
)

// Parser turns raw scraped price text into an amount plus the adjacent
// currency symbol text. It never resolves currencies itself.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a non-negative amount and a raw symbol candidate from
// price text in any of the storefront formats ("$20.99", "1.234,56 €",
// "¥1,300", "1 234,56"). The region hint only matters for digit-free
// "free"/"gratis" entries, whose currency is resolved downstream from
// the region alone.
func (p *Parser) Parse(rawText, regionHint string) (models.ParsedAmount, error) {
	text := normalizeText(rawText)

	digitAt := strings.IndexFunc(text, unicode.IsDigit)
	if digitAt < 0 {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "free") || strings.Contains(lower, "gratis") {
			return models.ParsedAmount{Value: 0}, nil
		}
		return models.ParsedAmount{}, ErrNoDigits
	}

	prefix := strings.TrimSpace(text[:digitAt])
	rest := text[digitAt:]

	// The numeric core is the maximal run of digits, separators and
	// interior spaces starting at the first digit.
	end := len(rest)
	for i, r := range rest {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != ' ' {
			end = i
			break
		}
	}
	core := strings.Trim(rest[:end], " .,")
	suffix := strings.TrimSpace(rest[end:])

	symbol := symbolCandidate(prefix, false)
	if symbol == "" {
		symbol = symbolCandidate(suffix, true)
	}

	value, err := parseAmount(core)
	if err != nil {
		return models.ParsedAmount{}, err
	}
	return models.ParsedAmount{Value: value, RawSymbol: symbol}, nil
}

func normalizeText(s string) string {
	for _, frag := range mojibakeFragments {
		s = strings.ReplaceAll(s, frag, "")
	}
	s = exoticSpaces.Replace(s)
	s = norm.NFKC.String(s)
	return strings.TrimSpace(s)
}

// symbolCandidate trims a prefix/suffix fragment down to its likely
// currency symbol: the token adjacent to the number, shorn of labels
// like "Price:" before it or "/month" after it.
func symbolCandidate(s string, isSuffix bool) string {
	if isSuffix {
		if i := strings.IndexAny(s, "/("); i >= 0 {
			s = s[:i]
		}
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	tok := fields[0]
	if !isSuffix {
		tok = fields[len(fields)-1]
	}
	return strings.Trim(tok, ":;-")
}

// parseAmount disambiguates thousands and decimal separators in the
// numeric core and parses the result. The rightmost of "," and "." wins
// as the decimal separator; a lone comma is decimal; repeated
// separators of a single kind are grouping.
func parseAmount(core string) (float64, error) {
	core = strings.ReplaceAll(core, " ", "")

	lastComma := strings.LastIndex(core, ",")
	lastDot := strings.LastIndex(core, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			core = strings.ReplaceAll(core, ".", "")
			i := strings.LastIndex(core, ",")
			core = strings.ReplaceAll(core[:i], ",", "") + "." + core[i+1:]
		} else {
			core = strings.ReplaceAll(core, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(core, ",") > 1 {
			core = strings.ReplaceAll(core, ",", "")
		} else {
			core = strings.Replace(core, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(core, ".") > 1 {
			core = strings.ReplaceAll(core, ".", "")
		}
	}

	// Anything that survived the run scan but is not part of a plain
	// decimal number goes; leftover multiple dots mean the dots were
	// grouping after all.
	var b strings.Builder
	for _, r := range core {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	core = b.String()
	if strings.Count(core, ".") > 1 {
		core = strings.ReplaceAll(core, ".", "")
	}

	if core == "" || core == "." {
		return 0, ErrInvalidNumber
	}
	value, err := strconv.ParseFloat(core, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, core)
	}
	return value, nil
}
