package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/nie11kun/price-comparator/models"
	"github.com/nie11kun/price-comparator/scheduler"
)

// shortlistSize caps the number of rows returned per query before the
// US and CN rows are forced back in.
const shortlistSize = 10

// regionNames decorates API responses with a display name per region.
var regionNames = map[string]string{
	"US": "United States",
	"CN": "China Mainland",
	"JP": "Japan",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"AU": "Australia",
	"CA": "Canada",
	"IN": "India",
	"BR": "Brazil",
	"TR": "Türkiye",
	"MX": "Mexico",
	"KR": "South Korea",
	"HK": "Hong Kong",
	"SG": "Singapore",
	"NZ": "New Zealand",
	"CH": "Switzerland",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"RU": "Russia",
	"AE": "United Arab Emirates",
	"SA": "Saudi Arabia",
}

// PriceReader is the read side of the record store.
type PriceReader interface {
	Query(ctx context.Context, appName, planName string) ([]models.PriceRecord, *time.Time, error)
}

// Runner triggers one synchronous update cycle.
type Runner interface {
	Run(ctx context.Context) error
}

type Handlers struct {
	store   PriceReader
	updater Runner
}

func NewHandlers(store PriceReader, updater Runner) *Handlers {
	return &Handlers{store: store, updater: updater}
}

// GetPrices serves GET /api/prices?app=...&plan=... with the cheapest
// rows for the app, always including the US and CN entries.
func (h *Handlers) GetPrices(w http.ResponseWriter, r *http.Request) {
	appName := r.URL.Query().Get("app")
	planName := r.URL.Query().Get("plan")

	if appName == "" {
		writeError(w, http.StatusBadRequest, "Missing 'app' parameter")
		return
	}

	records, latest, err := h.store.Query(r.Context(), appName, planName)
	if err != nil {
		log.Printf("Price query failed for app=%q plan=%q: %v", appName, planName, err)
		writeError(w, http.StatusInternalServerError, "Failed to query prices")
		return
	}

	lastUpdated := "N/A"
	if latest != nil {
		lastUpdated = latest.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, models.PricesResponse{
		App:         appName,
		PlanFilter:  planName,
		Prices:      shortlist(records),
		LastUpdated: lastUpdated,
	})
}

// shortlist keeps the ten cheapest rows in reference currency and then
// forces the US and CN rows back in for comparison, deduplicated by
// region and plan.
func shortlist(records []models.PriceRecord) []models.PriceEntry {
	sorted := make([]models.PriceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriceReference < sorted[j].PriceReference
	})

	keep := make(map[string]models.PriceRecord)
	limit := shortlistSize
	if limit > len(sorted) {
		limit = len(sorted)
	}
	for _, rec := range sorted[:limit] {
		keep[rec.Region+"_"+rec.PlanName] = rec
	}
	for _, rec := range sorted {
		if rec.Region == "US" || rec.Region == "CN" {
			keep[rec.Region+"_"+rec.PlanName] = rec
		}
	}

	entries := make([]models.PriceEntry, 0, len(keep))
	for _, rec := range keep {
		entries = append(entries, models.PriceEntry{
			PriceRecord: rec,
			RegionName:  regionNames[rec.Region],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PriceReference < entries[j].PriceReference
	})
	return entries
}

// TriggerUpdate runs one full update cycle synchronously. Only store
// level failures surface here; scrape and parse errors stay in logs.
func (h *Handlers) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	log.Println("Manual update triggered via /admin/trigger-update")

	err := h.updater.Run(r.Context())
	switch {
	case errors.Is(err, scheduler.ErrRunInProgress):
		writeError(w, http.StatusConflict, "Update already in progress")
	case err != nil:
		log.Printf("Manual update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Update failed. Check logs.")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Update completed. Refresh data."})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
