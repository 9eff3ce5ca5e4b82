// Package fetch retrieves listing page markup. Two strategies exist: a
// lightweight HTTP client and a headless-browser session for sites whose
// bot detection defeats plain GETs.
package fetch

import "context"

// Fetcher abstracts a page-retrieval strategy.
type Fetcher interface {
	// Fetch retrieves the markup at url. Failures are *Error values.
	Fetch(ctx context.Context, url string) (string, error)

	// Close releases any held resources (browser processes, idle
	// connections). A closed fetcher may transparently re-initialize on
	// the next Fetch.
	Close() error

	// Type identifies the strategy, e.g. "http" or "browser".
	Type() string
}
