package models

import "time"

// RawPriceItem is one price fragment located by a source extractor.
// It only lives for the duration of a single update run.
type RawPriceItem struct {
	AppName  string `json:"app_name"`
	PlanName string `json:"plan_name"`
	Region   string `json:"region"` // 2-letter uppercase region code
	RawText  string `json:"raw_text"`
}

// ParsedAmount is the output of the price text parser: a non-negative
// amount plus whatever non-numeric text sat next to it in the source.
type ParsedAmount struct {
	Value     float64 `json:"value"`
	RawSymbol string  `json:"raw_symbol"`
}

// Rate sources.
const (
	RateSourceLive     = "live"
	RateSourceFallback = "fallback"
)

// ConversionRate is a resolved exchange rate for a currency pair.
type ConversionRate struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Source string  `json:"source"` // "live" or "fallback"
}

// PriceRecord is one normalized price point as persisted in the store.
// Records are never mutated after creation; a full update run replaces
// the previous batch wholesale.
type PriceRecord struct {
	AppName        string    `json:"app_name" db:"app_name"`
	PlanName       string    `json:"plan_name" db:"plan_name"`
	Region         string    `json:"region" db:"region"`
	Currency       string    `json:"currency" db:"currency"`
	Price          float64   `json:"price" db:"price"`
	PriceReference float64   `json:"price_reference" db:"price_reference"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// PriceEntry is a PriceRecord enriched for API responses.
type PriceEntry struct {
	PriceRecord
	RegionName string `json:"region_name,omitempty"`
}

// PricesResponse is the payload of GET /api/prices.
type PricesResponse struct {
	App         string       `json:"app"`
	PlanFilter  string       `json:"plan_filter"`
	Prices      []PriceEntry `json:"prices"`
	LastUpdated string       `json:"last_updated"`
}
