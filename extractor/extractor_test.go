package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"listing-extractor/config"
	"listing-extractor/fetch"
	"listing-extractor/utils"
)

// fakeFetcher is a canned fetch strategy for wiring the pipeline in tests.
type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

func newTestExtractor(browser, http *fakeFetcher) *Extractor {
	return NewWithFetchers(&config.Config{}, utils.NewLogger(), browser, http)
}

const goodListingHTML = `<html><head>
	<meta property="og:title" content="$523,900 | 123 Main St, Springfield, IL 62701">
	<meta property="og:description" content="Charming three bedroom home.">
</head><body></body></html>`

func TestExtractInvalidURL(t *testing.T) {
	browser, http := &fakeFetcher{}, &fakeFetcher{}
	e := newTestExtractor(browser, http)

	res := e.Extract(context.Background(), "not a url")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "valid listing URL") {
		t.Errorf("error: got %q", res.Error)
	}
	if browser.calls+http.calls != 0 {
		t.Error("no fetch should happen for an invalid URL")
	}
}

func TestExtractUnsupportedSite(t *testing.T) {
	e := newTestExtractor(&fakeFetcher{}, &fakeFetcher{})

	res := e.Extract(context.Background(), "https://www.craigslist.org/apa/123")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "isn't supported") {
		t.Errorf("error: got %q", res.Error)
	}
}

func TestExtractLightPathSuccess(t *testing.T) {
	browser := &fakeFetcher{}
	http := &fakeFetcher{html: goodListingHTML}
	e := newTestExtractor(browser, http)

	res := e.Extract(context.Background(), "https://www.trulia.com/home/123-main-st-62701")
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if browser.calls != 0 {
		t.Error("light-path site must not touch the browser")
	}
	if http.calls != 1 {
		t.Errorf("http calls: got %d, want 1", http.calls)
	}
	if res.Data.Address != "123 Main St" || res.Data.Price != "$523,900" {
		t.Errorf("data: got %q / %q", res.Data.Address, res.Data.Price)
	}
	if len(res.MissingFields) != 0 {
		t.Errorf("missing fields: %v", res.MissingFields)
	}
	if !contains(res.ExtractedFields, "address") || !contains(res.ExtractedFields, "price") {
		t.Errorf("extracted fields: %v", res.ExtractedFields)
	}
	if res.Validation == nil || !res.Validation.IsValid {
		t.Error("validation should pass for a clean record")
	}
}

func TestExtractBrowserFallsBackToDirect(t *testing.T) {
	browser := &fakeFetcher{err: errors.New("chrome went away")}
	http := &fakeFetcher{html: goodListingHTML}
	e := newTestExtractor(browser, http)

	res := e.Extract(context.Background(), "https://www.zillow.com/homedetails/123-Main-St/555_zpid/")
	if !res.Success {
		t.Fatalf("expected fallback success, got error %q", res.Error)
	}
	if browser.calls != 1 || http.calls != 1 {
		t.Errorf("calls: browser %d http %d, want 1 and 1", browser.calls, http.calls)
	}
}

func TestExtractBothStrategiesFail(t *testing.T) {
	browser := &fakeFetcher{err: errors.New("chrome went away")}
	http := &fakeFetcher{err: &fetch.Error{Kind: fetch.KindAccessDenied, URL: "x"}}
	e := newTestExtractor(browser, http)

	res := e.Extract(context.Background(), "https://www.zillow.com/homedetails/123-Main-St/555_zpid/")
	if res.Success {
		t.Fatal("expected failure")
	}
	if browser.calls != 1 || http.calls != 1 {
		t.Errorf("calls: browser %d http %d, want exactly one each", browser.calls, http.calls)
	}
	if !strings.Contains(res.Error, "browser fetch") || !strings.Contains(res.Error, "direct fetch") {
		t.Errorf("error should report both attempts: %q", res.Error)
	}
	if !strings.Contains(res.Error, "browser extension") {
		t.Errorf("error should suggest a next step: %q", res.Error)
	}
}

func TestExtractNotFoundStopsBeforeParsing(t *testing.T) {
	http := &fakeFetcher{err: &fetch.Error{Kind: fetch.KindNotFound, URL: "https://www.trulia.com/gone"}}
	e := newTestExtractor(&fakeFetcher{}, http)

	res := e.Extract(context.Background(), "https://www.trulia.com/gone")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "not found") {
		t.Errorf("error: got %q", res.Error)
	}
	if res.Data != nil {
		t.Error("no data should be produced when the fetch fails")
	}
}

func TestExtractAccessDeniedSuggestsExtension(t *testing.T) {
	http := &fakeFetcher{err: &fetch.Error{Kind: fetch.KindAccessDenied, URL: "https://www.trulia.com/p1"}}
	e := newTestExtractor(&fakeFetcher{}, http)

	res := e.Extract(context.Background(), "https://www.trulia.com/p1")
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "browser extension") {
		t.Errorf("access-denied error lacks guidance: %q", res.Error)
	}
}

func TestExtractBlockPageViaScrapedField(t *testing.T) {
	blocked := `<html><head><title>Access to this page has been denied</title></head>
		<body><div id="px-captcha"></div></body></html>`
	browser := &fakeFetcher{html: blocked}
	e := newTestExtractor(browser, &fakeFetcher{})

	res := e.Extract(context.Background(), "https://www.zillow.com/homedetails/123-Main-St/555_zpid/")
	if res.Success {
		t.Fatal("expected failure for a block page")
	}
	if !strings.Contains(res.Error, "blocking automated access") {
		t.Errorf("error: got %q", res.Error)
	}
}

func TestExtractBlockPageViaRawMarkupScan(t *testing.T) {
	// No title and no extractable fields: the block text never reaches a
	// scraped field, so only the raw-markup scan can catch it.
	blocked := `<html><body><p>Pardon Our Interruption. Please verify you are a human.</p></body></html>`
	http := &fakeFetcher{html: blocked}
	e := newTestExtractor(&fakeFetcher{}, http)

	res := e.Extract(context.Background(), "https://www.trulia.com/p/x1")
	if res.Success {
		t.Fatal("expected failure for a block page")
	}
	if !strings.Contains(res.Error, "blocking automated access") {
		t.Errorf("error: got %q", res.Error)
	}
}

func TestExtractEmptyPageReportsNoData(t *testing.T) {
	http := &fakeFetcher{html: "<html><body></body></html>"}
	e := newTestExtractor(&fakeFetcher{}, http)

	res := e.Extract(context.Background(), "https://www.trulia.com/p/x1")
	if res.Success {
		t.Fatal("expected failure for an empty page")
	}
	if !strings.Contains(res.Error, "Couldn't find listing details") {
		t.Errorf("error: got %q", res.Error)
	}
}

func TestExtractBrowserKillSwitch(t *testing.T) {
	browser := &fakeFetcher{html: goodListingHTML}
	http := &fakeFetcher{html: goodListingHTML}
	e := NewWithFetchers(&config.Config{DisableBrowser: true}, utils.NewLogger(), browser, http)

	res := e.Extract(context.Background(), "https://www.zillow.com/homedetails/123-Main-St/555_zpid/")
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if browser.calls != 0 {
		t.Error("browser must stay cold when disabled")
	}
	if http.calls != 1 {
		t.Errorf("http calls: got %d, want 1", http.calls)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
