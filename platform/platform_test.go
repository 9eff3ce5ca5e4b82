package platform

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.zillow.com/homedetails/123-Main-St/12345_zpid/", Zillow},
		{"https://WWW.ZILLOW.COM/homedetails/1_zpid/", Zillow},
		{"https://www.realtor.com/realestateandhomes-detail/1", Realtor},
		{"https://www.redfin.com/IL/Springfield/123-Main-St/home/1", Redfin},
		{"https://www.trulia.com/p/il/springfield/1", Trulia},
		{"https://www.homes.com/property/123-main-st/id-1/", Homes},
		{"https://www.example.com/listing/1", Generic},
	}

	for _, tt := range tests {
		got, err := Classify(tt.url)
		if err != nil {
			t.Errorf("Classify(%q) returned error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %v; want %v", tt.url, got, tt.want)
		}
	}
}

func TestClassifyRejectsMalformedURLs(t *testing.T) {
	bad := []string{
		"",
		"not a url",
		"ftp://example.com/listing",
		"www.zillow.com/no-scheme",
		"https://",
	}

	for _, url := range bad {
		if _, err := Classify(url); err == nil {
			t.Errorf("Classify(%q) should reject malformed URL", url)
		}
	}
}

func TestRequiresBrowser(t *testing.T) {
	tests := []struct {
		p              Platform
		disableBrowser bool
		want           bool
	}{
		{Zillow, false, true},
		{Realtor, false, true},
		{Redfin, false, false},
		{Trulia, false, false},
		{Generic, false, false},
		{Zillow, true, false}, // kill switch wins
		{Realtor, true, false},
	}

	for _, tt := range tests {
		got := RequiresBrowser(tt.p, tt.disableBrowser)
		if got != tt.want {
			t.Errorf("RequiresBrowser(%v, %v) = %v; want %v",
				tt.p, tt.disableBrowser, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		p    Platform
		want bool
	}{
		{Zillow, true},
		{Realtor, true},
		{Redfin, true},
		{Trulia, true},
		{Homes, true},
		{Generic, false},
	}

	for _, tt := range tests {
		if got := Supported(tt.p); got != tt.want {
			t.Errorf("Supported(%v) = %v; want %v", tt.p, got, tt.want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.zillow.com/homedetails/1_zpid/", true},
		{"https://www.realtor.com/realestateandhomes-detail/1", true},
		{"https://www.redfin.com/home/1", true},
		// No bespoke parser, but generic extraction is permitted.
		{"https://www.trulia.com/p/1", true},
		{"https://www.homes.com/property/1", true},
		{"https://www.craigslist.org/apa/1.html", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := IsSupported(tt.url); got != tt.want {
			t.Errorf("IsSupported(%q) = %v; want %v", tt.url, got, tt.want)
		}
	}
}

func TestPlatformString(t *testing.T) {
	if Zillow.String() != "zillow" || Generic.String() != "generic" {
		t.Errorf("unexpected String() values: %q, %q", Zillow, Generic)
	}
}
