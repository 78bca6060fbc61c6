package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher retrieves the raw HTML of a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (string, error)
}

// HTTPFetcher fetches pages with a plain HTTP client wearing browser
// headers. Good enough for the support pages and most storefronts.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", browserUserAgent)
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %v", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode())
	}
	return resp.String(), nil
}

// BrowserFetcher drives a headless browser for storefronts that answer
// plain HTTP clients with 403s.
type BrowserFetcher struct {
	browser *rod.Browser
}

func NewBrowserFetcher() (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	// Use system Chromium in Docker, auto-detect locally.
	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
		log.Printf("Using system Chromium in Docker environment")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %v", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %v", err)
	}
	return &BrowserFetcher{browser: browser}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	page, err := f.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %v", url, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load %s: %v", url, err)
	}
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML for %s: %v", url, err)
	}
	return html, nil
}

func (f *BrowserFetcher) Close() {
	if f.browser != nil {
		f.browser.MustClose()
	}
}
