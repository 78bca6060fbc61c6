package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nie11kun/price-comparator/models"
)

// AppStoreSource scrapes the In-App Purchases section of one app's
// App Store page across every target storefront. The page structure is
// fragile on purpose: failures here are expected and only cost the one
// app/region combination.
type AppStoreSource struct {
	fetcher PageFetcher
	appName string
	storeID string
	regions []string
	delay   time.Duration
}

func NewAppStoreSource(fetcher PageFetcher, appName, storeID string, regions []string, delay time.Duration) *AppStoreSource {
	return &AppStoreSource{
		fetcher: fetcher,
		appName: appName,
		storeID: storeID,
		regions: regions,
		delay:   delay,
	}
}

func (s *AppStoreSource) Name() string {
	return s.appName
}

// Extract visits every target storefront with a fixed delay between
// requests so the store does not mistake the run for a flood.
func (s *AppStoreSource) Extract(ctx context.Context) ([]models.RawPriceItem, error) {
	var items []models.RawPriceItem
	for i, region := range s.regions {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return items, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		regionItems, err := s.extractRegion(ctx, region)
		if err != nil {
			log.Printf("Failed to scrape %s in %s: %v", s.appName, region, err)
			continue
		}
		items = append(items, regionItems...)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no in-app purchase prices found for %s in any region", s.appName)
	}
	return items, nil
}

func (s *AppStoreSource) extractRegion(ctx context.Context, region string) ([]models.RawPriceItem, error) {
	storefront := strings.ToLower(region)
	url := fmt.Sprintf("https://apps.apple.com/%s/app/id%s", storefront, s.storeID)
	headers := map[string]string{
		"Accept-Language": fmt.Sprintf("%s-%s,en-US;q=0.9,en;q=0.8", storefront, strings.ToUpper(region)),
	}

	page, err := s.fetcher.Fetch(ctx, url, headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %v", err)
	}

	var items []models.RawPriceItem
	doc.Find("li.list-with-numbers__item").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(".list-with-numbers__item__title").First().Text())
		price := strings.TrimSpace(sel.Find(".list-with-numbers__item__price").First().Text())
		if title == "" || price == "" {
			return
		}
		items = append(items, models.RawPriceItem{
			AppName:  s.appName,
			PlanName: title,
			Region:   strings.ToUpper(region),
			RawText:  price,
		})
	})
	if len(items) == 0 {
		return nil, fmt.Errorf("no in-app purchase entries found on page")
	}

	log.Printf("Scraped %d in-app purchase prices for %s in %s", len(items), s.appName, region)
	return items, nil
}
