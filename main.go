package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/nie11kun/price-comparator/config"
	"github.com/nie11kun/price-comparator/database"
	"github.com/nie11kun/price-comparator/handlers"
	"github.com/nie11kun/price-comparator/middleware"
	"github.com/nie11kun/price-comparator/pricing"
	"github.com/nie11kun/price-comparator/repository"
	"github.com/nie11kun/price-comparator/scheduler"
	"github.com/nie11kun/price-comparator/scraper"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	priceRepo := repository.NewPriceRepository()

	// Page fetcher: plain HTTP by default, headless browser when the
	// storefronts start rejecting it.
	var fetcher scraper.PageFetcher
	if cfg.UseBrowserFetcher {
		browserFetcher, err := scraper.NewBrowserFetcher()
		if err != nil {
			log.Fatalf("Failed to start browser fetcher: %v", err)
		}
		defer browserFetcher.Close()
		fetcher = browserFetcher
	} else {
		fetcher = scraper.NewHTTPFetcher(cfg.FetchTimeout)
	}

	// Source extractors for every tracked app.
	var sources []scheduler.Source
	for _, app := range cfg.Apps {
		switch app.Source {
		case config.SourceSupportPage:
			sources = append(sources, scraper.NewICloudSource(fetcher))
		case config.SourceAppStore:
			sources = append(sources, scraper.NewAppStoreSource(fetcher, app.Name, app.StoreID, cfg.TargetRegions, cfg.ScrapeDelay))
		default:
			log.Printf("Unknown source kind %q for app %s, skipping", app.Source, app.Name)
		}
	}

	rateClient := pricing.NewExchangeRateAPIClient(cfg.ExchangeRateAPIKey, cfg.RateTimeout)
	rates := pricing.NewRateProvider(rateClient, cfg.FallbackRates, cfg.ReferenceCurrency, cfg.BreakerThreshold)

	updater := scheduler.NewUpdater(sources, rates, priceRepo, cfg.ReferenceCurrency, cfg.ExcludedRegions)
	updater.Start(cfg.UpdateSchedule)
	defer updater.Stop()

	h := handlers.NewHandlers(priceRepo, updater)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSec))

	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/api/prices", h.GetPrices).Methods("GET")
	r.HandleFunc("/admin/trigger-update", h.TriggerUpdate).Methods("GET", "POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("Server starting on %s:%s", cfg.Host, cfg.Port)
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /api/prices?app=NAME&plan=NAME - Query normalized prices")
	log.Printf("   POST /admin/trigger-update - Run one update cycle now")

	log.Fatal(http.ListenAndServe(cfg.Host+":"+cfg.Port, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"service": "price-comparator", "status": "healthy", "timestamp": "` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
