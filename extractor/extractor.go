// Package extractor is the engine's sole entry point: given a listing URL
// it returns extracted, validated listing data or a typed failure. It wires
// classifier, fetch layer, platform parsers and the validation pipeline.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"listing-extractor/config"
	"listing-extractor/fetch"
	"listing-extractor/models"
	"listing-extractor/parser"
	"listing-extractor/platform"
	"listing-extractor/services"
	"listing-extractor/utils"
)

// User-displayable failure messages. Every failure path must explain what
// the user can do next, not just that something broke.
const (
	msgInvalidURL = "That doesn't look like a valid listing URL. Paste the full link, including https://."

	msgUnsupported = "This website isn't supported for automatic extraction. " +
		"Use the browser extension on the listing page, or enter the details manually."

	msgBlocked = "The site is blocking automated access to this listing. " +
		"Use the browser extension on the listing page, or enter the details manually."

	msgNoData = "Couldn't find listing details on this page. " +
		"Try the browser extension, or enter the details manually."
)

// Extractor runs the full URL-to-listing pipeline. Safe for concurrent use;
// the only shared state is the pooled headless browser inside the heavy
// fetcher.
type Extractor struct {
	cfg       *config.Config
	logger    *utils.Logger
	validator *services.Validator
	browser   fetch.Fetcher
	http      fetch.Fetcher
}

// New creates an Extractor with the real fetch strategies. The headless
// browser is not started until a heavy fetch first needs it.
func New(cfg *config.Config, logger *utils.Logger) *Extractor {
	return &Extractor{
		cfg:       cfg,
		logger:    logger,
		validator: services.NewValidator(logger),
		browser:   fetch.NewBrowserFetcher(cfg.FetchTimeout, cfg.SettleDelay, cfg.ChromeBin, logger),
		http:      fetch.NewHTTPFetcher(cfg.FetchTimeout, logger),
	}
}

// NewWithFetchers creates an Extractor with injected fetch strategies.
func NewWithFetchers(cfg *config.Config, logger *utils.Logger, browser, http fetch.Fetcher) *Extractor {
	return &Extractor{
		cfg:       cfg,
		logger:    logger,
		validator: services.NewValidator(logger),
		browser:   browser,
		http:      http,
	}
}

// Extract runs one extraction call: classify, fetch (with a single
// heavy-to-light fallback), parse, validate, and map every failure mode to
// a displayable message. It never panics and never retries a strategy twice.
func (e *Extractor) Extract(ctx context.Context, rawURL string) *models.ExtractionResult {
	p, err := platform.Classify(rawURL)
	if err != nil {
		return failure(msgInvalidURL)
	}
	if !platform.Supported(p) {
		return failure(msgUnsupported)
	}

	e.logger.Info("[extractor] %s — platform %s", rawURL, p)

	html, err := e.fetchMarkup(ctx, p, rawURL)
	if err != nil {
		return failure(err.Error())
	}

	raw := e.parseSafely(p, html, rawURL)
	if raw == nil {
		return failure(msgNoData)
	}

	// Validation always runs, even over thin data.
	validation := e.validator.Validate(raw)

	// Block-page gate: if the scraped fields carried a CAPTCHA signature,
	// the page was never a listing, no matter what else was extracted.
	if services.IsBlockPage(raw.Address) || services.IsBlockPage(raw.Description) {
		e.logger.Warn("[extractor] Block page detected via field validation: %s", rawURL)
		return failure(msgBlocked)
	}

	cleaned := validation.CleanedData
	missing := cleaned.MissingRequiredFields()

	if len(missing) > 0 && len(cleaned.PopulatedFields()) == 0 {
		// Nothing at all came out. A second scan over the raw markup
		// catches block pages whose text never reached a scraped field.
		if services.IsBlockPage(html) {
			e.logger.Warn("[extractor] Block page detected via raw-markup scan: %s", rawURL)
			return failure(msgBlocked)
		}
		return failure(msgNoData)
	}

	return &models.ExtractionResult{
		Success:         true,
		Data:            cleaned,
		ExtractedFields: cleaned.PopulatedFields(),
		MissingFields:   missing,
		Validation:      validation,
	}
}

// fetchMarkup picks the strategy for the platform. Heavy-path failures fall
// back once to the lightweight path; there is no second attempt on either
// strategy, so defended sites are never hammered.
func (e *Extractor) fetchMarkup(ctx context.Context, p platform.Platform, url string) (string, error) {
	if !platform.RequiresBrowser(p, e.cfg.DisableBrowser) {
		html, err := e.http.Fetch(ctx, url)
		if err != nil {
			return "", errors.New(displayFetchError(err))
		}
		return html, nil
	}

	html, heavyErr := e.browser.Fetch(ctx, url)
	if heavyErr == nil {
		return html, nil
	}
	e.logger.Warn("[extractor] Browser fetch failed for %s (%v) — falling back to direct fetch", url, heavyErr)

	html, lightErr := e.http.Fetch(ctx, url)
	if lightErr == nil {
		return html, nil
	}

	return "", fmt.Errorf("could not load the page (browser fetch: %v; direct fetch: %v). "+
		"The site may be blocking automated access — try the browser extension on the listing page instead",
		heavyErr, lightErr)
}

// parseSafely dispatches to the platform parser. Parsers are written never
// to fail, but a panic on hostile markup must degrade to a Failed result,
// not take the process down.
func (e *Extractor) parseSafely(p platform.Platform, html, url string) (l *models.ExtractedListing) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("[extractor] Parser panic for %s: %v", url, r)
			l = nil
		}
	}()
	return parser.Parse(p, html, url, e.logger)
}

// Shutdown tears down the shared headless browser. The next Extract call
// transparently recreates it.
func (e *Extractor) Shutdown() {
	if err := e.browser.Close(); err != nil {
		e.logger.Warn("[extractor] Browser shutdown: %v", err)
	}
	_ = e.http.Close()
}

// displayFetchError adds next-step guidance to typed fetch errors that
// benefit from it.
func displayFetchError(err error) string {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		switch fetchErr.Kind {
		case fetch.KindAccessDenied, fetch.KindRateLimited:
			return fetchErr.Error() + ". Use the browser extension on the listing page, or enter the details manually."
		}
	}
	return err.Error()
}

func failure(msg string) *models.ExtractionResult {
	return &models.ExtractionResult{Success: false, Error: msg}
}
