package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

// zillowPage builds a page embedding a client cache the way Zillow's
// bootstrap script does: the cache itself is a JSON-encoded string inside
// the page props.
func zillowPage(t *testing.T, cacheKey string, property map[string]any, extraHead string) string {
	t.Helper()

	cache := map[string]any{
		cacheKey: map[string]any{"property": property},
	}
	cacheJSON, err := json.Marshal(cache)
	if err != nil {
		t.Fatal(err)
	}

	payload := map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{
				"componentProps": map[string]any{
					"gdpClientCache": string(cacheJSON),
				},
			},
		},
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	return fmt.Sprintf(`<html><head>%s</head><body>
		<script id="__NEXT_DATA__" type="application/json">%s</script>
	</body></html>`, extraHead, payloadJSON)
}

func sampleProperty() map[string]any {
	return map[string]any{
		"address": map[string]any{
			"streetAddress": "321 Birch Ln",
			"city":          "Portland",
			"state":         "OR",
			"zipcode":       "97201",
		},
		"price":      float64(675000),
		"bedrooms":   float64(4),
		"bathrooms":  float64(2.5),
		"livingArea": float64(2200),
		"homeStatus": "FOR_SALE",
		"homeType":   "SINGLE_FAMILY",
		"yearBuilt":  float64(1978),
		"responsivePhotos": []any{
			map[string]any{
				"mixedSources": map[string]any{
					"jpeg": []any{
						map[string]any{"url": "https://photos.example.com/a-cc_ft_576.jpg"},
						map[string]any{"url": "https://photos.example.com/a-cc_ft_1536.jpg"},
					},
				},
			},
		},
	}
}

const zillowURL = "https://www.zillow.com/homedetails/321-Birch-Ln/555_zpid/"

func TestZillowCacheMining(t *testing.T) {
	html := zillowPage(t, `ForSaleShopperPlatformFullRenderQuery{"zpid":555}`, sampleProperty(), "")

	l := ParseZillow(html, zillowURL, testLogger())

	if l.Address != "321 Birch Ln" {
		t.Errorf("address: got %q, want 321 Birch Ln", l.Address)
	}
	if l.City != "Portland" || l.State != "OR" || l.Zip != "97201" {
		t.Errorf("city/state/zip: got %q/%q/%q", l.City, l.State, l.Zip)
	}
	if l.Price != "$675,000" {
		t.Errorf("price: got %q, want $675,000", l.Price)
	}
	if l.Bedrooms != "4" || l.Bathrooms != "2.5" || l.SquareFeet != "2200" {
		t.Errorf("beds/baths/sqft: got %q/%q/%q", l.Bedrooms, l.Bathrooms, l.SquareFeet)
	}
	if l.Status != "For Sale" {
		t.Errorf("status: got %q, want For Sale", l.Status)
	}
	if l.PropertyType != "Single Family" {
		t.Errorf("propertyType: got %q", l.PropertyType)
	}
	if len(l.ImageURLs) == 0 {
		t.Fatal("expected photos from the cache")
	}
	// The largest jpeg source is taken, then the pipeline upgrades it.
	if !strings.Contains(l.ImageURLs[0], "cc_ft_3840") {
		t.Errorf("photo not upgraded to top tier: %q", l.ImageURLs[0])
	}
}

func TestZillowLoosePropertyKeyFallback(t *testing.T) {
	html := zillowPage(t, `PropertyDetailsQuery{"zpid":556}`, sampleProperty(), "")

	l := ParseZillow(html, zillowURL, testLogger())
	if l.Address != "321 Birch Ln" {
		t.Errorf("loose key fallback failed, address: %q", l.Address)
	}
}

func TestZillowImplausiblePriceDiscarded(t *testing.T) {
	property := sampleProperty()
	property["price"] = float64(1) // junk sentinel the cache sometimes holds

	meta := `<meta property="og:description" content="4 bds | 2.5 ba • $675,000 — come see it">`
	html := zillowPage(t, `ForSaleShopperPlatformFullRenderQuery{"zpid":557}`, property, meta)

	l := ParseZillow(html, zillowURL, testLogger())
	if l.Price != "$675,000" {
		t.Errorf("price: got %q, want $675,000 recovered from meta tags", l.Price)
	}
}

func TestZillowNestedPriceObject(t *testing.T) {
	property := sampleProperty()
	delete(property, "price")
	property["listPrice"] = map[string]any{"value": float64(725000)}

	html := zillowPage(t, `ForSaleShopperPlatformFullRenderQuery{"zpid":558}`, property, "")

	l := ParseZillow(html, zillowURL, testLogger())
	if l.Price != "$725,000" {
		t.Errorf("price: got %q, want $725,000 from nested object", l.Price)
	}
}

func TestZillowImplausibleSqftDropped(t *testing.T) {
	property := sampleProperty()
	property["livingArea"] = float64(2) // bogus

	html := zillowPage(t, `ForSaleShopperPlatformFullRenderQuery{"zpid":559}`, property, "")

	l := ParseZillow(html, zillowURL, testLogger())
	if l.SquareFeet != "" {
		t.Errorf("implausible square footage kept: %q", l.SquareFeet)
	}
}

func TestZillowFallsThroughToGeneric(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="$300,000 | 456 Oak Ave, Denver, CO 80203">
	</head><body>No bootstrap payload here.</body></html>`

	l := ParseZillow(html, zillowURL, testLogger())
	if l.Address != "456 Oak Ave" {
		t.Errorf("generic fallback address: got %q", l.Address)
	}
	if l.Price != "$300,000" {
		t.Errorf("generic fallback price: got %q", l.Price)
	}
}

func TestZillowShapeScan(t *testing.T) {
	// No recognized cache key at all: the bounded scan should still find
	// the property-shaped object.
	cache := map[string]any{
		"someOpaqueKey": map[string]any{
			"deeply": map[string]any{
				"nested": map[string]any{
					"streetAddress": "99 Scan St",
					"price":         float64(250000),
				},
			},
		},
	}
	cacheJSON, _ := json.Marshal(cache)
	payload := map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{
				"componentProps": map[string]any{
					"gdpClientCache": string(cacheJSON),
				},
			},
		},
	}
	payloadJSON, _ := json.Marshal(payload)
	html := fmt.Sprintf(`<html><body>
		<script id="__NEXT_DATA__" type="application/json">%s</script>
	</body></html>`, payloadJSON)

	l := ParseZillow(html, zillowURL, testLogger())
	if l.Address != "99 Scan St" {
		t.Errorf("shape scan address: got %q", l.Address)
	}
	if l.Price != "$250,000" {
		t.Errorf("shape scan price: got %q", l.Price)
	}
}
