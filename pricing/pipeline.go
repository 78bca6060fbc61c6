package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nie11kun/price-comparator/models"
)

// Discard reasons. Every one of these is a per-item failure: the item
// is dropped and the run carries on.
var (
	ErrUnparsablePrice      = fmt.Errorf("unparsable price")
	ErrCurrencyUndetermined = fmt.Errorf("currency undetermined")
	ErrRegionExcluded       = fmt.Errorf("region excluded")
)

// Pipeline turns raw scraped items into normalized price records:
// parse, resolve the currency, filter excluded regions, convert into
// the reference currency.
type Pipeline struct {
	parser    *Parser
	resolver  *CurrencyResolver
	rates     *RunRates
	reference string
	excluded  map[string]bool
	now       time.Time
}

// NewPipeline builds a pipeline for one update run. rates must be the
// run's own session and now becomes the timestamp of every record the
// run produces.
func NewPipeline(rates *RunRates, reference string, excludedRegions []string, now time.Time) *Pipeline {
	excluded := make(map[string]bool, len(excludedRegions))
	for _, region := range excludedRegions {
		excluded[strings.ToUpper(region)] = true
	}
	return &Pipeline{
		parser:    NewParser(),
		resolver:  NewCurrencyResolver(),
		rates:     rates,
		reference: strings.ToUpper(reference),
		excluded:  excluded,
		now:       now,
	}
}

// Normalize converts one raw item into a PriceRecord, or returns the
// discard reason.
func (p *Pipeline) Normalize(ctx context.Context, item models.RawPriceItem) (models.PriceRecord, error) {
	region := strings.ToUpper(item.Region)

	parsed, err := p.parser.Parse(item.RawText, region)
	if err != nil {
		return models.PriceRecord{}, fmt.Errorf("%w: %v", ErrUnparsablePrice, err)
	}

	currency, ok := p.resolver.Resolve(parsed.RawSymbol, region)
	if !ok {
		return models.PriceRecord{}, ErrCurrencyUndetermined
	}

	if p.excluded[region] {
		return models.PriceRecord{}, ErrRegionExcluded
	}

	rate, err := p.rates.GetRate(ctx, currency, p.reference)
	if err != nil {
		return models.PriceRecord{}, ErrRateUnavailable
	}

	return models.PriceRecord{
		AppName:        item.AppName,
		PlanName:       item.PlanName,
		Region:         region,
		Currency:       currency,
		Price:          parsed.Value,
		PriceReference: round2(parsed.Value * rate.Rate),
		LastUpdated:    p.now,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
