package images

import (
	"fmt"
	"testing"
)

func TestScoreOrdering(t *testing.T) {
	// Unmarked originals beat every resolution-marked variant.
	unmarked := Score("https://cdn.example.com/photos/abc123.jpg")
	full := Score("https://cdn.example.com/photos/abc123_f.jpg")
	thumb := Score("https://cdn.example.com/photos/abc123_t.jpg")

	if !(unmarked > full && full > thumb) {
		t.Errorf("expected unmarked (%v) > full (%v) > thumb (%v)", unmarked, full, thumb)
	}
}

func TestScorePanoramaScale(t *testing.T) {
	prev := Score("https://cdn.example.com/p_f.jpg")
	for _, suffix := range []string{"l", "m", "s", "t"} {
		got := Score(fmt.Sprintf("https://cdn.example.com/p_%s.jpg", suffix))
		if got >= prev {
			t.Errorf("suffix %q scored %v, not below previous tier %v", suffix, got, prev)
		}
		prev = got
	}
}

func TestScoreWidthMarkers(t *testing.T) {
	tests := []struct {
		name   string
		lower  string
		higher string
	}{
		{"dimension segments", "https://c.com/640x480/p.jpg", "https://c.com/1920x1080/p.jpg"},
		{"width params", "https://c.com/p.jpg?w=320", "https://c.com/p.jpg?w=1600"},
		{"width tokens", "https://c.com/p-w480.jpg", "https://c.com/p-w1920.jpg"},
		{"ccft tiers", "https://c.com/p-cc_ft_640.webp", "https://c.com/p-cc_ft_1920.webp"},
		{"quality words", "https://c.com/p/thumb/img", "https://c.com/p/xlarge/img"},
	}

	for _, tt := range tests {
		if Score(tt.lower) >= Score(tt.higher) {
			t.Errorf("%s: Score(%q)=%v should be below Score(%q)=%v",
				tt.name, tt.lower, Score(tt.lower), tt.higher, Score(tt.higher))
		}
	}
}

func TestEnhance(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// Stripping the panorama suffix yields the original asset.
		{"https://cdn.example.com/abc_t.jpg", "https://cdn.example.com/abc.jpg"},
		{"https://cdn.example.com/abc_f.jpg", "https://cdn.example.com/abc.jpg"},
		// Low ccft widths upgrade to the top tier.
		{"https://c.com/p-cc_ft_640.webp", "https://c.com/p-cc_ft_3840.webp"},
		{"https://c.com/p-cc_ft_3840.webp", "https://c.com/p-cc_ft_3840.webp"},
		// Low width tokens upgrade to 1920.
		{"https://c.com/p-w480.jpg", "https://c.com/p-w1920.jpg"},
		// Only the token digits are rewritten, not an earlier lookalike.
		{"https://c.com/w480gallery/p-w480.jpg", "https://c.com/w480gallery/p-w1920.jpg"},
		// No markers: unchanged.
		{"https://cdn.example.com/abc.jpg", "https://cdn.example.com/abc.jpg"},
	}

	for _, tt := range tests {
		if got := Enhance(tt.in); got != tt.want {
			t.Errorf("Enhance(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessCollapsesResolutionVariants(t *testing.T) {
	tests := []struct {
		name string
		urls []string
		want string
	}{
		{
			"panorama suffixes",
			[]string{"https://cdn.example.com/photos/abc_t.jpg", "https://cdn.example.com/photos/abc_f.jpg"},
			"https://cdn.example.com/photos/abc.jpg",
		},
		{
			"quality-word segments",
			[]string{"https://c.com/p/thumb/img.jpg", "https://c.com/p/xlarge/img.jpg"},
			"https://c.com/p/xlarge/img.jpg",
		},
		{
			"quality-word tokens",
			[]string{"https://c.com/photo-small.jpg", "https://c.com/photo-large.jpg"},
			"https://c.com/photo-large.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Process(tt.urls)
			if len(got) != 1 {
				t.Fatalf("expected 1 entry after canonical dedupe, got %d: %v", len(got), got)
			}
			if got[0] != tt.want {
				t.Errorf("kept %q; want %q", got[0], tt.want)
			}
		})
	}
}

func TestProcessKeepsHighestScoringVariant(t *testing.T) {
	got := Process([]string{
		"https://c.com/p/house.jpg?w=640",
		"https://c.com/p/house.jpg?w=1920",
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(got), got)
	}
	if got[0] != "https://c.com/p/house.jpg?w=1920" {
		t.Errorf("kept %q; want the w=1920 variant", got[0])
	}
}

func TestProcessRanksDistinctPhotos(t *testing.T) {
	got := Process([]string{
		"https://c.com/one_t.jpg?x=1", // enhances to the original
		"https://c.com/two/640x480/p.jpg",
		"https://c.com/three-w1920.jpg",
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(got), got)
	}
	// The enhanced original must rank first.
	if got[0] != "https://c.com/one.jpg?x=1" {
		t.Errorf("top-ranked photo: got %q", got[0])
	}
}

func TestProcessCapsGallery(t *testing.T) {
	var urls []string
	for i := 0; i < 50; i++ {
		urls = append(urls, fmt.Sprintf("https://cdn.example.com/photo-%d.jpg", i))
	}

	got := Process(urls)
	if len(got) != maxGallerySize {
		t.Errorf("gallery size: got %d, want %d", len(got), maxGallerySize)
	}
}

func TestProcessSkipsEmptyInput(t *testing.T) {
	if got := Process([]string{"", "  "}); len(got) != 0 {
		t.Errorf("expected no entries for blank input, got %v", got)
	}
}
