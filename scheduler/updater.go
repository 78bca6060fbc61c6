package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nie11kun/price-comparator/models"
	"github.com/nie11kun/price-comparator/pricing"
)

// ErrRunInProgress is returned when a second trigger arrives while an
// update run holds the run lock.
var ErrRunInProgress = errors.New("price update already in progress")

// Source locates raw price fragments on an external page.
type Source interface {
	Name() string
	Extract(ctx context.Context) ([]models.RawPriceItem, error)
}

// PriceStore persists one run's worth of normalized records.
type PriceStore interface {
	ReplaceAll(ctx context.Context, records []models.PriceRecord) error
}

// Updater owns the full update cycle: scrape every source, normalize
// each item through the pricing pipeline, and replace the stored
// dataset. Runs are serialized; the store replace only happens when the
// run produced at least one record.
type Updater struct {
	sources   []Source
	rates     *pricing.RateProvider
	store     PriceStore
	reference string
	excluded  []string

	runMu sync.Mutex
	cron  *cron.Cron
}

func NewUpdater(sources []Source, rates *pricing.RateProvider, store PriceStore, reference string, excludedRegions []string) *Updater {
	return &Updater{
		sources:   sources,
		rates:     rates,
		store:     store,
		reference: reference,
		excluded:  excludedRegions,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start schedules recurring update runs and kicks one off immediately.
func (u *Updater) Start(schedule string) {
	_, err := u.cron.AddFunc(schedule, func() {
		if err := u.Run(context.Background()); err != nil && !errors.Is(err, ErrRunInProgress) {
			log.Printf("Scheduled price update failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("Failed to schedule price updates: %v", err)
		return
	}

	go func() {
		if err := u.Run(context.Background()); err != nil && !errors.Is(err, ErrRunInProgress) {
			log.Printf("Initial price update failed: %v", err)
		}
	}()

	u.cron.Start()
	log.Printf("Price updates scheduled with cron expression %q", schedule)
}

// Stop stops the schedule. A run already in flight finishes.
func (u *Updater) Stop() {
	if u.cron != nil {
		u.cron.Stop()
	}
}

// Run performs one full update cycle. Per-item and per-source failures
// are logged and skipped; only a store failure aborts the run.
func (u *Updater) Run(ctx context.Context) error {
	if !u.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer u.runMu.Unlock()

	log.Println("--- Starting price update run ---")
	start := time.Now()
	now := start.UTC()

	// Fresh breaker state for every run.
	pipeline := pricing.NewPipeline(u.rates.NewRun(), u.reference, u.excluded, now)

	var records []models.PriceRecord
	discarded := 0
	for _, src := range u.sources {
		items, err := src.Extract(ctx)
		if err != nil {
			log.Printf("Source %s failed: %v", src.Name(), err)
			continue
		}
		log.Printf("Source %s produced %d raw items", src.Name(), len(items))

		for _, item := range items {
			rec, err := pipeline.Normalize(ctx, item)
			if err != nil {
				discarded++
				log.Printf("Discarded %s/%s/%s (%q): %v", item.AppName, item.PlanName, item.Region, item.RawText, err)
				continue
			}
			records = append(records, rec)
		}
	}

	log.Printf("Normalized %d price records (%d discarded) in %v", len(records), discarded, time.Since(start).Round(time.Millisecond))

	if len(records) == 0 {
		log.Println("No records normalized; keeping previous price data")
		return nil
	}

	if err := u.store.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("failed to replace price data: %v", err)
	}
	log.Printf("Stored %d price records", len(records))
	return nil
}
