package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nie11kun/price-comparator/models"
)

var testExcluded = []string{"EG", "AR"}

func newTestPipeline(client RateClient, now time.Time) *Pipeline {
	provider := NewRateProvider(client, testFallback, "CNY", 1)
	return NewPipeline(provider.NewRun(), "CNY", testExcluded, now)
}

func TestNormalizeEndToEndWithFallbackRate(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	// Empty client: the first live lookup fails and the run degrades to
	// the fallback table.
	pipeline := newTestPipeline(&fakeRateClient{}, now)

	rec, err := pipeline.Normalize(context.Background(), models.RawPriceItem{
		AppName:  "ChatGPT",
		PlanName: "Plus",
		Region:   "CA",
		RawText:  "CA$20.99",
	})
	require.NoError(t, err)
	require.Equal(t, "ChatGPT", rec.AppName)
	require.Equal(t, "Plus", rec.PlanName)
	require.Equal(t, "CA", rec.Region)
	require.Equal(t, "CAD", rec.Currency)
	require.Equal(t, 20.99, rec.Price)
	require.Equal(t, 109.84, rec.PriceReference) // 20.99 * 5.2331 rounded
	require.Equal(t, now, rec.LastUpdated)
}

func TestNormalizeReferenceCurrencyItem(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeRateClient{}
	pipeline := newTestPipeline(client, now)

	rec, err := pipeline.Normalize(context.Background(), models.RawPriceItem{
		AppName:  "iCloud+",
		PlanName: "50GB",
		Region:   "CN",
		RawText:  "¥6",
	})
	require.NoError(t, err)
	require.Equal(t, "CNY", rec.Currency)
	require.Equal(t, 6.0, rec.Price)
	require.Equal(t, 6.0, rec.PriceReference)
	require.Empty(t, client.calls, "identity conversion must not call the rate service")
}

func TestNormalizeDiscardReasons(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name string
		item models.RawPriceItem
		err  error
	}{
		{
			name: "unparsable price",
			item: models.RawPriceItem{AppName: "ChatGPT", PlanName: "Plus", Region: "US", RawText: "Coming soon"},
			err:  ErrUnparsablePrice,
		},
		{
			name: "currency undetermined",
			item: models.RawPriceItem{AppName: "ChatGPT", PlanName: "Plus", Region: "XX", RawText: "12.99"},
			err:  ErrCurrencyUndetermined,
		},
		{
			name: "region excluded",
			item: models.RawPriceItem{AppName: "ChatGPT", PlanName: "Plus", Region: "EG", RawText: "E£ 479.99"},
			err:  ErrRegionExcluded,
		},
		{
			name: "rate unavailable",
			item: models.RawPriceItem{AppName: "ChatGPT", PlanName: "Plus", Region: "TW", RawText: "330"},
			err:  ErrRateUnavailable,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			pipeline := newTestPipeline(&fakeRateClient{}, now)
			_, err := pipeline.Normalize(context.Background(), test.item)
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestNormalizeExcludedRegionBeatsValidPrice(t *testing.T) {
	now := time.Now().UTC()
	pipeline := newTestPipeline(&fakeRateClient{rates: map[string]float64{"USD/CNY": 7.31}}, now)

	// Price and currency both resolve fine; exclusion still wins.
	_, err := pipeline.Normalize(context.Background(), models.RawPriceItem{
		AppName:  "Claude",
		PlanName: "Pro",
		Region:   "AR",
		RawText:  "$18.00",
	})
	require.ErrorIs(t, err, ErrRegionExcluded)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	pipeline := newTestPipeline(&fakeRateClient{rates: map[string]float64{"USD/CNY": 7.31}}, now)

	item := models.RawPriceItem{AppName: "Google One", PlanName: "Premium", Region: "US", RawText: "$9.99"}

	first, err := pipeline.Normalize(context.Background(), item)
	require.NoError(t, err)
	second, err := pipeline.Normalize(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
