package fetch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"listing-extractor/utils"
)

// BrowserFetcher is the heavy strategy: a headless Chrome session with
// stealth countermeasures. One browser process is shared across calls,
// created lazily on first use; each Fetch opens and closes its own tab so
// concurrent calls never see each other's cookies or storage.
type BrowserFetcher struct {
	timeout   time.Duration
	settle    time.Duration
	chromeBin string
	logger    *utils.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowserFetcher creates a BrowserFetcher. The browser process itself is
// not started until the first Fetch.
func NewBrowserFetcher(timeout, settle time.Duration, chromeBin string, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		timeout:   timeout,
		settle:    settle,
		chromeBin: chromeBin,
		logger:    logger,
	}
}

// acquire returns the shared browser context, starting or restarting the
// browser process if needed. Safe under concurrent callers; only one
// initialization happens even if two calls race.
func (b *BrowserFetcher) acquire() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil && b.browserCtx.Err() == nil {
		return b.browserCtx, nil
	}

	// Previous browser is gone (never started, torn down, or crashed).
	b.teardownLocked()

	bin := b.chromeBin
	if bin == "" {
		bin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(desktopUserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions launches the browser process now, so a broken
	// Chrome install fails here instead of inside the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	b.logger.Info("[fetch:browser] Started headless browser (binary: %s)", bin)
	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	return browserCtx, nil
}

// Fetch renders the page in its own tab and returns the final markup.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindFetchFailed, URL: url, Err: err}
	}

	browserCtx, err := b.acquire()
	if err != nil {
		return "", &Error{Kind: KindFetchFailed, URL: url, Err: err}
	}

	// The tab derives from the shared browser context, not the caller's:
	// once navigation starts, the bounded timeout is the only way the
	// fetch terminates early.
	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	b.logger.Debug("[fetch:browser] Navigating to %s", url)

	var html string
	err = chromedp.Run(tabCtx,
		injectStealth(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Settle delay: lets client-side rendering finish after the
		// network goes quiet.
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Kind: KindTimeout, URL: url, Err: err}
		}
		return "", &Error{Kind: KindFetchFailed, URL: url, Err: err}
	}

	return html, nil
}

// Close tears down the shared browser process. The next Fetch transparently
// starts a fresh one.
func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil {
		b.logger.Info("[fetch:browser] Shutting down headless browser")
	}
	b.teardownLocked()
	return nil
}

func (b *BrowserFetcher) teardownLocked() {
	if b.browserCancel != nil {
		b.browserCancel()
		b.browserCancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	b.browserCtx = nil
}

func (b *BrowserFetcher) Type() string { return "browser" }

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
