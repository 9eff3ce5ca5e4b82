package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"listing-extractor/images"
	"listing-extractor/models"
	"listing-extractor/services"
	"listing-extractor/utils"
)

const (
	// cacheScanLimit bounds the last-resort scan over cache entries. The
	// bound and the property-shape predicate are tunable heuristics, not
	// part of the contract.
	cacheScanLimit = 500

	minPlausiblePrice = 10_000
	maxPlausiblePrice = 50_000_000
	minPlausibleSqft  = 100
	maxPlausibleSqft  = 50_000
)

var (
	// fullRenderKeyRegexp matches cache keys of the full-listing GraphQL
	// queries, the richest entries in the client cache.
	fullRenderKeyRegexp = regexp.MustCompile(`(?i)FullRenderQuery|ForSaleShopperPlatform|NotForSaleShopperPlatform`)
	// propertyKeyRegexp is the looser fallback key pattern.
	propertyKeyRegexp = regexp.MustCompile(`(?i)property|ForSale|HomeDetails`)

	// metaPricePatterns recover a price from OG meta text when the cache
	// held none (or only implausible values). Tried in order.
	metaPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*\$([\d,]+)`),                  // price-first
		regexp.MustCompile(`[|\-–]\s*\$([\d,]+)`),             // price after separator
		regexp.MustCompile(`(?i)listed for sale at \$?([\d,]+)`),
		regexp.MustCompile(`[•·]\s*\$([\d,]+)`),               // bullet-separated
		regexp.MustCompile(`\$([\d,]+)`),                      // anywhere, range-checked
	}

	// priceFieldNames are the alternative cache field names for price,
	// tried in order.
	priceFieldNames = []string{"price", "listPrice", "unformattedPrice", "priceForHDP", "zestimate"}
)

// ParseZillow mines the embedded client-side data cache that Zillow's
// heavily client-rendered pages bootstrap from. When the cache yields no
// usable address the generic parser takes over.
func ParseZillow(html, pageURL string, logger *utils.Logger) *models.ExtractedListing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ParseGeneric(html, pageURL, logger)
	}

	l := mineClientCache(doc, pageURL, logger)
	if l == nil || l.Address == "" {
		logger.Debug("[parser:zillow] Cache mining yielded no address for %s — using generic parser", pageURL)
		return ParseGeneric(html, pageURL, logger)
	}

	if l.Price == "" {
		l.Price = recoverPriceFromMeta(doc)
	}

	l.ImageURLs = images.Process(l.ImageURLs)
	if l.ImageURL == "" && len(l.ImageURLs) > 0 {
		l.ImageURL = l.ImageURLs[0]
	}
	return l
}

// mineClientCache locates the bootstrap JSON payload and digs out the best
// property entry it holds.
func mineClientCache(doc *goquery.Document, pageURL string, logger *utils.Logger) *models.ExtractedListing {
	payload := bootstrapPayload(doc)
	if payload == nil {
		return nil
	}

	cache := findClientCache(payload)
	if cache == nil {
		return nil
	}

	entry := pickCacheEntry(cache, logger)
	if entry == nil {
		return nil
	}

	return listingFromCacheEntry(entry, pageURL)
}

// bootstrapPayload parses the __NEXT_DATA__ (or equivalent) full-page JSON
// bootstrap script.
func bootstrapPayload(doc *goquery.Document) any {
	var payload any
	doc.Find(`script#__NEXT_DATA__, script[type="application/json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "Cache") && !strings.Contains(text, "cache") {
			return true
		}
		var raw any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return true
		}
		payload = raw
		return false
	})
	return payload
}

// findClientCache searches nested containers for the client-side GraphQL
// cache. The cache is sometimes itself a JSON-encoded string.
var cachePaths = [][]string{
	{"props", "pageProps", "componentProps", "gdpClientCache"},
	{"props", "pageProps", "gdpClientCache"},
	{"props", "pageProps", "componentProps", "initialReduxState", "gdp", "building"},
	{"apiCache"},
}

func findClientCache(payload any) map[string]any {
	for _, path := range cachePaths {
		v, ok := dig(payload, path...)
		if !ok {
			continue
		}
		if s, ok := asString(v); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				continue
			}
			v = decoded
		}
		if obj, ok := asObject(v); ok {
			return obj
		}
	}
	return nil
}

// pickCacheEntry chooses the most promising cache entry: full-render query
// keys first, then looser property-query keys, then a bounded scan for
// anything property-shaped.
func pickCacheEntry(cache map[string]any, logger *utils.Logger) map[string]any {
	var fullMatch, looseMatch map[string]any
	for key, v := range cache {
		obj, ok := asObject(v)
		if !ok {
			continue
		}
		if fullRenderKeyRegexp.MatchString(key) && fullMatch == nil {
			fullMatch = obj
		} else if propertyKeyRegexp.MatchString(key) && looseMatch == nil {
			looseMatch = obj
		}
	}
	if fullMatch != nil {
		return fullMatch
	}
	if looseMatch != nil {
		return looseMatch
	}

	logger.Debug("[parser:zillow] No recognized cache key — scanning up to %d entries", cacheScanLimit)
	scanned := 0
	var found map[string]any
	walkObjects(cache, func(obj map[string]any) bool {
		scanned++
		if scanned > cacheScanLimit {
			return false
		}
		if looksLikeProperty(obj) {
			found = obj
			return false
		}
		return true
	})
	return found
}

// walkObjects visits nested objects breadth-first until fn returns false.
func walkObjects(root map[string]any, fn func(map[string]any) bool) {
	queue := []map[string]any{root}
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		if !fn(obj) {
			return
		}
		for _, v := range obj {
			if child, ok := asObject(v); ok {
				queue = append(queue, child)
			} else if arr, ok := asArray(v); ok {
				for _, item := range arr {
					if child, ok := asObject(item); ok {
						queue = append(queue, child)
					}
				}
			}
		}
	}
}

// looksLikeProperty is the tunable shape predicate for the fallback scan:
// an address-ish field plus at least one price/photo/bedroom-ish field.
func looksLikeProperty(obj map[string]any) bool {
	_, hasAddress := obj["address"]
	_, hasStreet := obj["streetAddress"]
	if !hasAddress && !hasStreet {
		return false
	}
	for _, key := range []string{"price", "listPrice", "photos", "responsivePhotos", "bedrooms", "beds"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// listingFromCacheEntry converts a cache entry into a raw listing record.
// The property object is usually nested under a "property" key.
func listingFromCacheEntry(entry map[string]any, pageURL string) *models.ExtractedListing {
	property := entry
	if nested, ok := asObject(entry["property"]); ok {
		property = nested
	}

	l := &models.ExtractedListing{URL: pageURL}

	if street, ok := digString(property, "address", "streetAddress"); ok {
		l.Address = strings.TrimSpace(street)
	} else if street, ok := asString(property["streetAddress"]); ok {
		l.Address = strings.TrimSpace(street)
	}
	if city, ok := digString(property, "address", "city"); ok {
		l.City = strings.TrimSpace(city)
	}
	if state, ok := digString(property, "address", "state"); ok {
		l.State = strings.TrimSpace(state)
	}
	if zip, ok := digString(property, "address", "zipcode"); ok {
		l.Zip = strings.TrimSpace(zip)
	}

	if price, ok := extractCachePrice(property); ok {
		l.Price = services.FormatPrice(price)
	}

	if beds, ok := asNumber(property["bedrooms"]); ok {
		l.Bedrooms = strconv.Itoa(int(beds))
	}
	if baths, ok := asNumber(property["bathrooms"]); ok {
		l.Bathrooms = strconv.FormatFloat(baths, 'f', -1, 64)
	}
	if sqft, ok := asNumber(property["livingArea"]); ok {
		if sqft >= minPlausibleSqft && sqft <= maxPlausibleSqft {
			l.SquareFeet = strconv.Itoa(int(sqft))
		}
	} else if sqft, ok := asNumber(property["livingAreaValue"]); ok {
		if sqft >= minPlausibleSqft && sqft <= maxPlausibleSqft {
			l.SquareFeet = strconv.Itoa(int(sqft))
		}
	}

	if status, ok := asString(property["homeStatus"]); ok {
		l.Status = normalizeStatus(status)
	}
	if desc, ok := asString(property["description"]); ok {
		l.Description = strings.TrimSpace(desc)
	}
	if mls, ok := digString(property, "attributionInfo", "mlsId"); ok {
		l.MLSID = strings.TrimSpace(mls)
	}

	if homeType, ok := asString(property["homeType"]); ok {
		l.PropertyType = normalizeStatus(homeType)
	}
	if year, ok := asNumber(property["yearBuilt"]); ok {
		l.YearBuilt = strconv.Itoa(int(year))
	}
	if lot, ok := asNumber(property["lotSize"]); ok {
		l.LotSize = strconv.Itoa(int(lot))
	}
	if hoa, ok := asNumber(property["monthlyHoaFee"]); ok && hoa > 0 {
		l.HOAFee = services.FormatPrice(hoa)
	}
	if tax, ok := asNumber(property["taxAnnualAmount"]); ok && tax > 0 {
		l.AnnualTax = services.FormatPrice(tax)
	}

	l.ImageURLs = cachePhotos(property)
	return l
}

// extractCachePrice tries the alternative price field names in order,
// unwrapping nested price objects, and only accepts plausible values.
// Implausible numbers are discarded rather than trusted.
func extractCachePrice(property map[string]any) (float64, bool) {
	for _, name := range priceFieldNames {
		v, ok := property[name]
		if !ok {
			continue
		}
		var value float64
		switch {
		case isNumberish(v):
			value, _ = asNumber(v)
		default:
			if nested, ok := digNumber(v, "value"); ok {
				value = nested
			} else if nested, ok := digNumber(v, "amount"); ok {
				value = nested
			} else if s, ok := asString(v); ok {
				if parsed, okNum := services.ParseNumeric(s); okNum {
					value = parsed
				}
			}
		}
		if value >= minPlausiblePrice && value <= maxPlausiblePrice {
			return value, true
		}
	}
	return 0, false
}

func isNumberish(v any) bool {
	_, ok := asNumber(v)
	return ok
}

// recoverPriceFromMeta is the secondary pass: five textual patterns over
// the OG meta tags, each range-checked.
func recoverPriceFromMeta(doc *goquery.Document) string {
	texts := []string{
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="description"]`),
	}
	for _, pattern := range metaPricePatterns {
		for _, text := range texts {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value, ok := services.ParseNumeric(m[1])
			if !ok {
				continue
			}
			if value >= minPlausiblePrice && value <= maxPlausiblePrice {
				return services.FormatPrice(value)
			}
		}
	}
	return ""
}

// cachePhotos collects photo URLs from the several shapes the cache uses.
func cachePhotos(property map[string]any) []string {
	var urls []string

	if photos, ok := asArray(property["responsivePhotos"]); ok {
		for _, item := range photos {
			photo, ok := asObject(item)
			if !ok {
				continue
			}
			if sources, ok := asArray(dig2(photo, "mixedSources", "jpeg")); ok {
				best := ""
				for _, src := range sources {
					if u, ok := digString(src, "url"); ok {
						best = u // sources are ordered smallest to largest
					}
				}
				if best != "" {
					urls = append(urls, best)
					continue
				}
			}
			if u, ok := asString(photo["url"]); ok {
				urls = append(urls, u)
			}
		}
	}

	if photos, ok := asArray(property["photos"]); ok {
		for _, item := range photos {
			if u, ok := asString(item); ok {
				urls = append(urls, u)
			} else if u, ok := digString(item, "url"); ok {
				urls = append(urls, u)
			}
		}
	}

	if u, ok := asString(property["hiResImageLink"]); ok {
		urls = append(urls, u)
	}

	return urls
}

// dig2 is dig without the ok flag, for use inside other probe expressions.
func dig2(v any, path ...string) any {
	out, _ := dig(v, path...)
	return out
}

// normalizeStatus turns SCREAMING_SNAKE cache enums into readable text,
// e.g. "FOR_SALE" -> "For Sale".
func normalizeStatus(s string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
