package fetch

import "fmt"

// ErrorKind classifies fetch failures so the orchestrator can branch on
// them without string matching.
type ErrorKind int

const (
	KindFetchFailed ErrorKind = iota
	KindAccessDenied
	KindNotFound
	KindRateLimited
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindFetchFailed:
		return "fetch_failed"
	}
	return "fetch_failed"
}

// Error is a typed fetch failure. The message is safe to show to an end user.
type Error struct {
	Kind   ErrorKind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAccessDenied:
		return fmt.Sprintf("access to %s was denied by the site", e.URL)
	case KindNotFound:
		return fmt.Sprintf("the page at %s was not found", e.URL)
	case KindRateLimited:
		return fmt.Sprintf("the site is rate limiting requests to %s", e.URL)
	case KindTimeout:
		return fmt.Sprintf("fetching %s timed out", e.URL)
	default:
		if e.Err != nil {
			return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("failed to fetch %s", e.URL)
	}
}

func (e *Error) Unwrap() error { return e.Err }
