package pricing

import "strings"

// symbolRule maps a currency symbol, optionally conditioned on the
// region, to a canonical code. Rules are evaluated in order, so
// specific multi-character symbols and region-conditioned entries must
// come before the generic defaults for shared glyphs.
type symbolRule struct {
	Symbol   string
	Region   string // empty matches any region
	Currency string
}

var symbolRules = []symbolRule{
	// Unambiguous multi-character symbols first.
	{"HK$", "", "HKD"},
	{"NZ$", "", "NZD"},
	{"CA$", "", "CAD"},
	{"A$", "", "AUD"},
	{"R$", "", "BRL"},
	{"MX$", "", "MXN"},
	{"US$", "", "USD"},
	{"S/", "", "PEN"},
	{"RMB", "", "CNY"},
	{"ZŁ", "", "PLN"},

	// The generic dollar sign depends on the storefront.
	{"$", "US", "USD"},
	{"$", "CA", "CAD"},
	{"$", "AU", "AUD"},
	{"$", "SG", "SGD"},
	{"$", "HK", "HKD"},
	{"$", "MX", "MXN"},
	{"$", "NZ", "NZD"},
	{"$", "CL", "CLP"},
	{"$", "CO", "COP"},
	{"$", "AR", "ARS"},
	{"$", "", "USD"},

	// Yen and yuan share a glyph (both the narrow and fullwidth form).
	{"¥", "JP", "JPY"},
	{"¥", "", "CNY"},
	{"￥", "JP", "JPY"},
	{"￥", "", "CNY"},

	// The Scandinavian krone marker.
	{"KR", "DK", "DKK"},
	{"KR", "NO", "NOK"},
	{"KR", "", "SEK"},

	// The rial glyph.
	{"﷼", "QA", "QAR"},
	{"﷼", "", "SAR"},

	{"€", "", "EUR"},
	{"£", "", "GBP"},
	{"₹", "", "INR"},
	{"₽", "", "RUB"},
	{"₩", "", "KRW"},
	{"₺", "", "TRY"},
	{"₦", "", "NGN"},
	{"₫", "", "VND"},
	{"₱", "", "PHP"},
	{"฿", "", "THB"},
	{"₪", "", "ILS"},
	{"CHF", "", "CHF"},
}

// regionCurrency is the fallback when the symbol is empty or unknown.
// Several non-target regions deliberately map to USD: their storefronts
// price in dollars even though the country has its own currency.
var regionCurrency = map[string]string{
	"US": "USD", "CN": "CNY", "JP": "JPY", "GB": "GBP",
	"DE": "EUR", "FR": "EUR", "IT": "EUR", "ES": "EUR",
	"AT": "EUR", "NL": "EUR", "BE": "EUR", "FI": "EUR",
	"IE": "EUR", "PT": "EUR", "GR": "EUR", "SK": "EUR",
	"SI": "EUR", "LV": "EUR", "LT": "EUR", "EE": "EUR",
	"LU": "EUR", "MT": "EUR", "CY": "EUR",
	"AU": "AUD", "CA": "CAD", "IN": "INR", "BR": "BRL",
	"TR": "TRY", "MX": "MXN", "KR": "KRW", "HK": "HKD",
	"SG": "SGD", "RU": "RUB", "CH": "CHF", "NZ": "NZD",
	"SE": "SEK", "NO": "NOK", "DK": "DKK", "PL": "PLN",
	"ZA": "ZAR", "AE": "AED", "SA": "SAR", "QA": "QAR",
	"ID": "IDR", "MY": "MYR", "TH": "THB", "VN": "VND",
	"PH": "PHP", "CL": "CLP", "CO": "COP", "PE": "PEN",
	"AR": "ARS", "NG": "NGN", "EG": "EGP", "TW": "TWD",
	"IL": "ILS",
	// Dollarized storefronts.
	"EC": "USD", "SV": "USD", "PA": "USD", "PR": "USD",
	"KH": "USD", "LB": "USD", "ZW": "USD", "TL": "USD",
	"FM": "USD", "MH": "USD", "PW": "USD", "VE": "USD",
}

// isoCodes are the 3-letter codes accepted as-is when scraped text
// already spells out the currency.
var isoCodes = map[string]bool{
	"USD": true, "CNY": true, "JPY": true, "GBP": true, "EUR": true,
	"AUD": true, "CAD": true, "INR": true, "BRL": true, "TRY": true,
	"MXN": true, "KRW": true, "HKD": true, "SGD": true, "RUB": true,
	"CHF": true, "NZD": true, "SEK": true, "NOK": true, "DKK": true,
	"PLN": true, "ZAR": true, "AED": true, "SAR": true, "QAR": true,
	"IDR": true, "MYR": true, "THB": true, "VND": true, "PHP": true,
	"CLP": true, "COP": true, "PEN": true, "ARS": true, "NGN": true,
	"EGP": true, "TWD": true, "ILS": true,
}

// CurrencyResolver maps a raw symbol and/or region code to a canonical
// 3-letter currency code.
type CurrencyResolver struct{}

func NewCurrencyResolver() *CurrencyResolver {
	return &CurrencyResolver{}
}

// Resolve returns the canonical currency for a scraped symbol and
// region. The symbol wins when recognized, with shared glyphs
// disambiguated by region; otherwise the region decides. ok is false
// when neither does.
func (r *CurrencyResolver) Resolve(rawSymbol, regionCode string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(rawSymbol))
	region := strings.ToUpper(strings.TrimSpace(regionCode))

	if isoCodes[symbol] {
		return symbol, true
	}
	if symbol != "" {
		for _, rule := range symbolRules {
			if rule.Region != "" && rule.Region != region {
				continue
			}
			if strings.Contains(symbol, rule.Symbol) {
				return rule.Currency, true
			}
		}
	}
	if currency, ok := regionCurrency[region]; ok {
		return currency, true
	}
	return "", false
}
