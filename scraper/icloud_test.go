package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const icloudSupportPage = `<!DOCTYPE html>
<html><body><div class="main-content">
<h2>United States</h2>
<ul>
  <li>50GB: $0.99</li>
  <li>200GB: $2.99</li>
  <li>2TB: $9.99</li>
  <li>6TB: $29.99</li>
  <li>12TB: $59.99</li>
</ul>
<h2>China Mainland</h2>
<ul>
  <li>50GB: ¥6</li>
  <li>200GB: ¥21</li>
  <li>2TB: ¥68</li>
</ul>
<h3>Germany</h3>
<ul>
  <li>50GB: 0,99 €</li>
  <li>Learn more about storage plans</li>
</ul>
<h2>See also</h2>
<ul>
  <li>50GB: $9.99</li>
</ul>
</div></body></html>`

func TestICloudExtract(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		icloudSupportURL: icloudSupportPage,
	}}
	source := NewICloudSource(fetcher)

	items, err := source.Extract(context.Background())
	require.NoError(t, err)
	// 5 US + 3 CN + 1 DE; the non-tier entry and the unrecognized
	// "See also" section are ignored.
	require.Len(t, items, 9)

	require.Equal(t, "iCloud+", items[0].AppName)
	require.Equal(t, "50GB", items[0].PlanName)
	require.Equal(t, "US", items[0].Region)
	require.Equal(t, "$0.99", items[0].RawText)

	var regions []string
	for _, item := range items {
		regions = append(regions, item.Region)
	}
	require.Equal(t, []string{"US", "US", "US", "US", "US", "CN", "CN", "CN", "DE"}, regions)
	require.Equal(t, "0,99 €", items[8].RawText)
}

func TestICloudExtractEmptyPage(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		icloudSupportURL: "<html><body><p>Page moved</p></body></html>",
	}}
	source := NewICloudSource(fetcher)

	_, err := source.Extract(context.Background())
	require.Error(t, err)
}

func TestICloudExtractFetchFailure(t *testing.T) {
	source := NewICloudSource(&fakeFetcher{})

	_, err := source.Extract(context.Background())
	require.Error(t, err)
}

func TestParseTierEntry(t *testing.T) {
	cases := []struct {
		text string
		ok   bool
		plan string
		raw  string
	}{
		{"200GB: $2.99", true, "200GB", "$2.99"},
		{"2TB: ¥68", true, "2TB", "¥68"},
		{"12TB: 59,99 €", true, "12TB", "59,99 €"},
		{"Learn more", false, "", ""},
		{"1TB: $4.99", false, "", ""}, // not a listed tier
		{"50GB:", false, "", ""},
	}

	for _, test := range cases {
		item, ok := parseTierEntry(test.text, "US")
		require.Equal(t, test.ok, ok, "input %q", test.text)
		if ok {
			require.Equal(t, test.plan, item.PlanName)
			require.Equal(t, test.raw, item.RawText)
		}
	}
}
