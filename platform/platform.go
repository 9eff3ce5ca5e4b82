package platform

import (
	"errors"
	"net/url"
	"strings"
)

// Platform identifies a supported listing source. It is a closed set: adding
// a source means adding a constant here and extending the switches that
// dispatch on it, which the compiler then checks.
type Platform int

const (
	Generic Platform = iota
	Zillow
	Realtor
	Redfin
	Trulia
	Homes
)

// ErrInvalidURL is returned for inputs that do not parse as absolute
// http(s) URLs.
var ErrInvalidURL = errors.New("invalid listing URL")

func (p Platform) String() string {
	switch p {
	case Zillow:
		return "zillow"
	case Realtor:
		return "realtor"
	case Redfin:
		return "redfin"
	case Trulia:
		return "trulia"
	case Homes:
		return "homes"
	case Generic:
		return "generic"
	}
	return "unknown"
}

// domainMatch pairs a host substring with the platform it identifies.
// Order matters: first match wins.
var domainMatch = []struct {
	substr string
	p      Platform
}{
	{"zillow.com", Zillow},
	{"realtor.com", Realtor},
	{"redfin.com", Redfin},
	{"trulia.com", Trulia},
	{"homes.com", Homes},
}

// Classify maps a listing URL to its source platform. URLs that fail basic
// syntactic validation are rejected before any matching happens.
func Classify(rawURL string) (Platform, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Generic, ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Generic, ErrInvalidURL
	}

	host := strings.ToLower(u.Host)
	for _, m := range domainMatch {
		if strings.Contains(host, m.substr) {
			return m.p, nil
		}
	}
	return Generic, nil
}

// RequiresBrowser reports whether the platform runs bot detection aggressive
// enough that a plain HTTP GET is unlikely to get real markup. The
// disableBrowser kill switch overrides it for environments without Chrome.
func RequiresBrowser(p Platform, disableBrowser bool) bool {
	if disableBrowser {
		return false
	}
	switch p {
	case Zillow, Realtor:
		return true
	case Redfin, Trulia, Homes, Generic:
		return false
	}
	return false
}

// Supported reports whether the engine will attempt extraction for the
// platform. Named platforms are always supported; Trulia and Homes have no
// bespoke parser but generic extraction works well enough on both, so they
// pass too. Unknown hosts classify as Generic and are rejected up front.
func Supported(p Platform) bool {
	switch p {
	case Zillow, Realtor, Redfin:
		return true
	case Trulia, Homes:
		return true
	case Generic:
		return false
	}
	return false
}

// IsSupported classifies the URL and reports whether extraction will be
// attempted for it.
func IsSupported(rawURL string) bool {
	p, err := Classify(rawURL)
	return err == nil && Supported(p)
}
