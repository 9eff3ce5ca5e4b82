// Package images ranks, enhances and deduplicates listing photo URLs.
// Everything here is pure: quality is inferred from naming conventions in
// the URL text alone, no image bytes are ever fetched.
package images

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// maxGallerySize caps the final ranked photo list.
const maxGallerySize = 30

var (
	// panoSuffixRegexp captures the five-level panorama quality suffix
	// (_f full > _l large > _m medium > _s small > _t thumb) before the
	// file extension.
	panoSuffixRegexp = regexp.MustCompile(`(?i)[_-]([flmst])(\.(?:jpe?g|png|webp|gif))`)
	// dimensionsRegexp captures an explicit WxH path segment, e.g. /1024x768/
	dimensionsRegexp = regexp.MustCompile(`/(\d{2,5})x(\d{2,5})(?:/|$)`)
	// widthParamRegexp captures a width query parameter, e.g. ?w=1200
	widthParamRegexp = regexp.MustCompile(`(?i)[?&](?:w|width)=(\d{2,5})`)
	// widthTokenRegexp captures a width-suffix token, e.g. -w960 or _w1920
	widthTokenRegexp = regexp.MustCompile(`(?i)[-_]w(\d{2,4})(?:\D|$)`)
	// widthStripRegexp removes a width-suffix token when building canonical keys.
	widthStripRegexp = regexp.MustCompile(`(?i)[-_]w\d{2,4}`)
	// ccftRegexp captures the cc_ft_#### width convention used by the
	// heaviest photo CDN among the supported sources.
	ccftRegexp = regexp.MustCompile(`(?i)cc_ft_(\d{2,5})`)
	// qualityWordSegmentRegexp and qualityWordTokenRegexp remove the textual
	// quality markers when building canonical keys, as whole path segments
	// (/thumb/) and as delimited name tokens (photo-small.jpg). Longest
	// alternatives first so "xlarge" never half-matches as "large".
	qualityWordSegmentRegexp = regexp.MustCompile(`(?i)/(?:xlarge|large|medium|small|full|thumb|hd)(/|$)`)
	qualityWordTokenRegexp   = regexp.MustCompile(`(?i)[-_](?:xlarge|large|medium|small|full|thumb|hd)([-_./]|$)`)
	// imageExtRegexp recognizes a standard image file extension.
	imageExtRegexp = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)(\?|$)`)
)

// panoScores maps the alphabetic panorama scale to comparable scores.
var panoScores = map[string]float64{
	"f": 4000,
	"l": 3200,
	"m": 2400,
	"s": 1600,
	"t": 800,
}

// Score estimates relative photo quality from URL naming conventions.
// Higher is better. A bare image URL carrying no resolution markers at all
// is assumed to be the original, unscaled asset and outranks everything.
func Score(url string) float64 {
	if m := panoSuffixRegexp.FindStringSubmatch(url); m != nil {
		return panoScores[strings.ToLower(m[1])]
	}

	if m := dimensionsRegexp.FindStringSubmatch(url); m != nil {
		w, _ := strconv.ParseFloat(m[1], 64)
		if w > 5000 {
			w = 5000
		}
		return w
	}

	if m := widthParamRegexp.FindStringSubmatch(url); m != nil {
		w, _ := strconv.ParseFloat(m[1], 64)
		if w > 5000 {
			w = 5000
		}
		return w
	}

	if m := widthTokenRegexp.FindStringSubmatch(url); m != nil {
		w, _ := strconv.ParseFloat(m[1], 64)
		if w > 5000 {
			w = 5000
		}
		return w
	}

	if m := ccftRegexp.FindStringSubmatch(url); m != nil {
		w, _ := strconv.Atoi(m[1])
		switch {
		case w >= 3840:
			return 3500
		case w >= 1920:
			return 2800
		case w >= 960:
			return 1800
		case w >= 640:
			return 1100
		default:
			return 500
		}
	}

	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "xlarge"),
		strings.Contains(lower, "full"),
		strings.Contains(lower, "hd"):
		return 3000
	case strings.Contains(lower, "large"):
		return 2000
	case strings.Contains(lower, "medium"):
		return 1000
	case strings.Contains(lower, "small"), strings.Contains(lower, "thumb"):
		return 400
	}

	if imageExtRegexp.MatchString(url) {
		return 10000 // unmarked original asset
	}
	return 100
}

// Enhance rewrites a photo URL to its best-available variant.
func Enhance(url string) string {
	// Stripping a panorama quality suffix yields the unscaled base asset.
	if panoSuffixRegexp.MatchString(url) {
		return panoSuffixRegexp.ReplaceAllString(url, "$2")
	}

	if m := ccftRegexp.FindStringSubmatch(url); m != nil {
		if w, err := strconv.Atoi(m[1]); err == nil && w < 3840 {
			return ccftRegexp.ReplaceAllString(url, "cc_ft_3840")
		}
		return url
	}

	// Rewrite the digits of the matched token in place: the same number can
	// also appear earlier in the URL where it is not a width marker.
	if loc := widthTokenRegexp.FindStringSubmatchIndex(url); loc != nil {
		if w, err := strconv.Atoi(url[loc[2]:loc[3]]); err == nil && w < 1920 {
			return url[:loc[2]] + "1920" + url[loc[3]:]
		}
	}
	return url
}

// CanonicalKey strips every resolution marker from a URL so that
// size-variants of the same photo collapse to one key.
func CanonicalKey(url string) string {
	key := url
	if i := strings.Index(key, "?"); i >= 0 {
		// Width params are resolution markers; the rest of the query
		// rarely distinguishes photos, so drop it wholesale.
		key = key[:i]
	}
	key = panoSuffixRegexp.ReplaceAllString(key, "$2")
	key = dimensionsRegexp.ReplaceAllString(key, "/")
	key = ccftRegexp.ReplaceAllString(key, "")
	key = widthStripRegexp.ReplaceAllString(key, "")
	key = qualityWordSegmentRegexp.ReplaceAllString(key, "$1")
	key = qualityWordTokenRegexp.ReplaceAllString(key, "$1")
	return key
}

// Process enhances every URL, ranks the results by score (ties broken by
// preferring the longer, typically more specific URL), deduplicates
// size-variants by canonical key and caps the gallery.
func Process(urls []string) []string {
	type candidate struct {
		url   string
		score float64
	}

	candidates := make([]candidate, 0, len(urls))
	for _, raw := range urls {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		enhanced := Enhance(u)
		candidates = append(candidates, candidate{url: enhanced, score: Score(enhanced)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return len(candidates[i].url) > len(candidates[j].url)
	})

	seen := make(map[string]struct{}, len(candidates))
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := CanonicalKey(c.url)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, c.url)
		if len(result) == maxGallerySize {
			break
		}
	}
	return result
}
