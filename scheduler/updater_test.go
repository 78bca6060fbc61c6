package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nie11kun/price-comparator/models"
	"github.com/nie11kun/price-comparator/pricing"
)

type fakeSource struct {
	name  string
	items []models.RawPriceItem
	err   error
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Extract(ctx context.Context) ([]models.RawPriceItem, error) {
	return s.items, s.err
}

type fakeStore struct {
	batches [][]models.PriceRecord
	err     error
}

func (s *fakeStore) ReplaceAll(ctx context.Context, records []models.PriceRecord) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, records)
	return nil
}

type fakeRateClient struct{}

func (fakeRateClient) PairRate(ctx context.Context, from, to string) (float64, error) {
	return 0, fmt.Errorf("simulated lookup failure")
}

var testFallback = map[string]float64{"USD": 7.2454, "CAD": 5.2331}

func newTestUpdater(store PriceStore, sources ...Source) *Updater {
	provider := pricing.NewRateProvider(fakeRateClient{}, testFallback, "CNY", 1)
	return NewUpdater(sources, provider, store, "CNY", []string{"EG"})
}

func TestRunStoresNormalizedRecords(t *testing.T) {
	store := &fakeStore{}
	updater := newTestUpdater(store,
		&fakeSource{name: "ChatGPT", items: []models.RawPriceItem{
			{AppName: "ChatGPT", PlanName: "Plus", Region: "US", RawText: "$19.99"},
			{AppName: "ChatGPT", PlanName: "Plus", Region: "CA", RawText: "CA$27.99"},
		}},
	)

	require.NoError(t, updater.Run(context.Background()))
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 2)
	require.Equal(t, "USD", store.batches[0][0].Currency)
	require.Equal(t, "CAD", store.batches[0][1].Currency)
}

func TestRunIsolatesItemAndSourceFailures(t *testing.T) {
	store := &fakeStore{}
	updater := newTestUpdater(store,
		&fakeSource{name: "iCloud+", err: fmt.Errorf("support page unreachable")},
		&fakeSource{name: "ChatGPT", items: []models.RawPriceItem{
			{AppName: "ChatGPT", PlanName: "Plus", Region: "US", RawText: "Coming soon"},
			{AppName: "ChatGPT", PlanName: "Plus", Region: "EG", RawText: "479.99"},
			{AppName: "ChatGPT", PlanName: "Plus", Region: "US", RawText: "$19.99"},
		}},
	)

	require.NoError(t, updater.Run(context.Background()))
	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 1, "only the valid item survives")
	require.Equal(t, "US", store.batches[0][0].Region)
}

func TestRunWithZeroRecordsLeavesStoreUntouched(t *testing.T) {
	store := &fakeStore{}
	updater := newTestUpdater(store,
		&fakeSource{name: "ChatGPT", items: []models.RawPriceItem{
			{AppName: "ChatGPT", PlanName: "Plus", Region: "US", RawText: "Coming soon"},
		}},
	)

	require.NoError(t, updater.Run(context.Background()))
	require.Empty(t, store.batches, "an empty run must not touch the store")
}

func TestRunSurfacesStoreFailure(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("connection reset")}
	updater := newTestUpdater(store,
		&fakeSource{name: "ChatGPT", items: []models.RawPriceItem{
			{AppName: "ChatGPT", PlanName: "Plus", Region: "US", RawText: "$19.99"},
		}},
	)

	err := updater.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to replace price data")
}

func TestRunSerialization(t *testing.T) {
	store := &fakeStore{}
	updater := newTestUpdater(store)

	// Simulate a run in flight.
	require.True(t, updater.runMu.TryLock())
	err := updater.Run(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)
	updater.runMu.Unlock()

	require.NoError(t, updater.Run(context.Background()))
}
