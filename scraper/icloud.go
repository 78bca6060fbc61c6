package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nie11kun/price-comparator/models"
)

const icloudSupportURL = "https://support.apple.com/en-us/108047"

// icloudTiers are the storage tiers listed on the support page.
var icloudTiers = map[string]bool{
	"50GB":  true,
	"200GB": true,
	"2TB":   true,
	"6TB":   true,
	"12TB":  true,
}

// countryRegions maps the country headings on the support page to
// region codes. Headings are matched lowercased.
var countryRegions = map[string]string{
	"united states":        "US",
	"china mainland":       "CN",
	"china":                "CN",
	"japan":                "JP",
	"united kingdom":       "GB",
	"germany":              "DE",
	"france":               "FR",
	"italy":                "IT",
	"spain":                "ES",
	"australia":            "AU",
	"canada":               "CA",
	"india":                "IN",
	"brazil":               "BR",
	"turkey":               "TR",
	"türkiye":              "TR",
	"mexico":               "MX",
	"south korea":          "KR",
	"republic of korea":    "KR",
	"hong kong":            "HK",
	"singapore":            "SG",
	"new zealand":          "NZ",
	"switzerland":          "CH",
	"sweden":               "SE",
	"norway":               "NO",
	"denmark":              "DK",
	"russia":               "RU",
	"united arab emirates": "AE",
	"saudi arabia":         "SA",
	"egypt":                "EG",
	"argentina":            "AR",
}

// ICloudSource scrapes iCloud+ tier prices from the Apple support
// page: country headings followed by per-tier price lists.
type ICloudSource struct {
	fetcher PageFetcher
	url     string
}

func NewICloudSource(fetcher PageFetcher) *ICloudSource {
	return &ICloudSource{fetcher: fetcher, url: icloudSupportURL}
}

func (s *ICloudSource) Name() string {
	return "iCloud+"
}

func (s *ICloudSource) Extract(ctx context.Context) ([]models.RawPriceItem, error) {
	page, err := s.fetcher.Fetch(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse support page: %v", err)
	}

	var items []models.RawPriceItem
	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		country := strings.ToLower(strings.TrimSpace(heading.Text()))
		region, ok := countryRegions[country]
		if !ok {
			return
		}
		// The price list sits between this heading and the next one.
		heading.NextUntil("h2, h3").Find("li").Each(func(_ int, entry *goquery.Selection) {
			item, ok := parseTierEntry(entry.Text(), region)
			if !ok {
				return
			}
			items = append(items, item)
		})
	})
	if len(items) == 0 {
		return nil, fmt.Errorf("no iCloud+ tier prices found on support page")
	}

	log.Printf("Scraped %d iCloud+ prices from support page", len(items))
	return items, nil
}

// parseTierEntry splits a list entry like "200GB: $2.99" into a raw
// item. Entries that do not start with a known tier are skipped.
func parseTierEntry(text, region string) (models.RawPriceItem, bool) {
	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return models.RawPriceItem{}, false
	}
	tier := strings.TrimSpace(parts[0])
	price := strings.TrimSpace(parts[1])
	if !icloudTiers[tier] || price == "" {
		return models.RawPriceItem{}, false
	}
	return models.RawPriceItem{
		AppName:  "iCloud+",
		PlanName: tier,
		Region:   region,
		RawText:  price,
	}, true
}
