package parser

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"listing-extractor/images"
	"listing-extractor/models"
	"listing-extractor/services"
	"listing-extractor/utils"
)

var (
	// priceTitleRegexp splits the common "$price | address" OG title pattern.
	priceTitleRegexp = regexp.MustCompile(`^\s*\$([\d,]+)\s*[|\-–]\s*(.+)$`)
	// titlePriceRegexp handles the reversed "address | $price" form.
	titlePriceRegexp = regexp.MustCompile(`^(.+?)\s*[|\-–]\s*\$([\d,]+)\s*$`)
	// cityStateZipRegexp splits "street, city, ST 12345" address strings.
	cityStateZipRegexp = regexp.MustCompile(`^(.*?),\s*([^,]+),\s*([A-Za-z]{2})\.?\s+(\d{5}(?:-\d{4})?)\s*$`)
	// skipImageRegexp excludes obvious non-photo assets from the gallery.
	skipImageRegexp = regexp.MustCompile(`(?i)(logo|icon|sprite|avatar|placeholder|badge|pixel|tracking|\.svg)`)
	// urlSlugSepRegexp turns URL slugs back into readable text.
	urlSlugSepRegexp = regexp.MustCompile(`[-_+]+`)
)

// jsonLDTypes are the schema.org @type values worth mining for listing data.
var jsonLDTypes = map[string]bool{
	"SingleFamilyResidence": true,
	"Residence":             true,
	"House":                 true,
	"Apartment":             true,
	"RealEstateListing":     true,
	"Product":               true,
	"Offer":                 true,
	"Place":                 true,
}

// ParseGeneric extracts listing data from arbitrary markup. Per field it
// tries embedded JSON-LD first, then Open Graph meta tags, then a table of
// DOM selector heuristics. It never fails: malformed input produces a
// best-effort partial record.
func ParseGeneric(html, pageURL string, logger *utils.Logger) *models.ExtractedListing {
	l := &models.ExtractedListing{URL: pageURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("[parser:generic] Unparseable markup for %s: %v", pageURL, err)
		l.Address = fallbackAddress("", pageURL)
		return l
	}

	applyJSONLD(doc, l)
	applyOpenGraph(doc, l)
	applySelectorHeuristics(doc, l)
	collectImages(doc, l, pageURL)

	if l.Address == "" {
		l.Address = fallbackAddress(doc.Find("title").First().Text(), pageURL)
	}

	logger.Debug("[parser:generic] %s — extracted %d field(s)",
		pageURL, len(l.PopulatedFields()))
	return l
}

// applyJSONLD mines application/ld+json blocks for real-estate-ish nodes.
func applyJSONLD(doc *goquery.Document, l *models.ExtractedListing) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		for _, node := range flattenJSONLD(raw) {
			applyJSONLDNode(node, l)
		}
		// Stop once the structurally required field is in hand.
		return l.Address == ""
	})
}

// flattenJSONLD expands arrays and @graph containers into a flat node list.
func flattenJSONLD(raw any) []map[string]any {
	var nodes []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			nodes = append(nodes, flattenJSONLD(item)...)
		}
	case map[string]any:
		if graph, ok := asArray(v["@graph"]); ok {
			for _, item := range graph {
				nodes = append(nodes, flattenJSONLD(item)...)
			}
		}
		nodes = append(nodes, v)
	}
	return nodes
}

func applyJSONLDNode(node map[string]any, l *models.ExtractedListing) {
	typeName, _ := asString(node["@type"])
	if !jsonLDTypes[typeName] {
		return
	}

	if l.Address == "" {
		if street, ok := digString(node, "address", "streetAddress"); ok {
			l.Address = strings.TrimSpace(street)
		} else if addr, ok := asString(node["address"]); ok {
			setAddressParts(l, addr)
		}
	}
	if l.City == "" {
		if city, ok := digString(node, "address", "addressLocality"); ok {
			l.City = strings.TrimSpace(city)
		}
	}
	if l.State == "" {
		if state, ok := digString(node, "address", "addressRegion"); ok {
			l.State = strings.TrimSpace(state)
		}
	}
	if l.Zip == "" {
		if zip, ok := digString(node, "address", "postalCode"); ok {
			l.Zip = strings.TrimSpace(zip)
		}
	}

	if l.Price == "" {
		if price, ok := digNumber(node, "offers", "price"); ok && price > 0 {
			l.Price = services.FormatPrice(price)
		} else if price, ok := asNumber(node["price"]); ok && price > 0 {
			l.Price = services.FormatPrice(price)
		}
	}

	if l.Bedrooms == "" {
		if beds, ok := asNumber(node["numberOfBedrooms"]); ok {
			l.Bedrooms = strconv.Itoa(int(beds))
		} else if beds, ok := asNumber(node["numberOfRooms"]); ok {
			l.Bedrooms = strconv.Itoa(int(beds))
		}
	}
	if l.Bathrooms == "" {
		if baths, ok := asNumber(node["numberOfBathroomsTotal"]); ok {
			l.Bathrooms = strconv.FormatFloat(baths, 'f', -1, 64)
		}
	}
	if l.SquareFeet == "" {
		if sqft, ok := digNumber(node, "floorSize", "value"); ok {
			l.SquareFeet = strconv.Itoa(int(sqft))
		}
	}
	if l.YearBuilt == "" {
		if year, ok := asNumber(node["yearBuilt"]); ok {
			l.YearBuilt = strconv.Itoa(int(year))
		}
	}

	if l.Title == "" {
		if name, ok := asString(node["name"]); ok {
			l.Title = strings.TrimSpace(name)
		}
	}
	if l.Description == "" {
		if desc, ok := asString(node["description"]); ok {
			l.Description = strings.TrimSpace(desc)
		}
	}

	switch img := node["image"].(type) {
	case string:
		l.ImageURLs = append(l.ImageURLs, img)
	case []any:
		for _, item := range img {
			if u, ok := asString(item); ok {
				l.ImageURLs = append(l.ImageURLs, u)
			}
		}
	}
}

// applyOpenGraph fills still-empty fields from OG meta tags, including the
// "$price | address" title convention. The split keeps the price out of
// the address and the address out of the price.
func applyOpenGraph(doc *goquery.Document, l *models.ExtractedListing) {
	ogTitle := metaContent(doc, `meta[property="og:title"]`)
	if ogTitle != "" {
		if l.Title == "" {
			l.Title = ogTitle
		}
		price, addr := splitPriceTitle(ogTitle)
		if l.Price == "" && price != "" {
			l.Price = price
		}
		if l.Address == "" && addr != "" {
			setAddressParts(l, addr)
		}
	}

	if l.Description == "" {
		if desc := metaContent(doc, `meta[property="og:description"]`); desc != "" {
			l.Description = desc
		} else if desc := metaContent(doc, `meta[name="description"]`); desc != "" {
			l.Description = desc
		}
	}

	doc.Find(`meta[property="og:image"], meta[property="og:image:secure_url"]`).Each(func(_ int, s *goquery.Selection) {
		if u, ok := s.Attr("content"); ok && u != "" {
			l.ImageURLs = append(l.ImageURLs, u)
		}
	})
}

// splitPriceTitle parses "$523,900 | 123 Main St, ..." and its reversed
// form, returning a normalized price and the bare address part.
func splitPriceTitle(title string) (price, address string) {
	if m := priceTitleRegexp.FindStringSubmatch(title); m != nil {
		return normalizePrice(m[1]), strings.TrimSpace(m[2])
	}
	if m := titlePriceRegexp.FindStringSubmatch(title); m != nil {
		// Only treat the left side as an address if it isn't itself a price.
		left := strings.TrimSpace(m[1])
		if !strings.Contains(left, "$") {
			return normalizePrice(m[2]), left
		}
	}
	return "", ""
}

// setAddressParts stores a full "street, city, ST zip" string, splitting
// out city/state/zip when the format allows it.
func setAddressParts(l *models.ExtractedListing, full string) {
	full = strings.TrimSpace(full)
	if m := cityStateZipRegexp.FindStringSubmatch(full); m != nil {
		l.Address = strings.TrimSpace(m[1])
		if l.City == "" {
			l.City = strings.TrimSpace(m[2])
		}
		if l.State == "" {
			l.State = strings.ToUpper(m[3])
		}
		if l.Zip == "" {
			l.Zip = m[4]
		}
		return
	}
	l.Address = full
}

// selectorRules is the last-resort extraction table: per field, DOM
// selectors tried in order.
var selectorRules = []struct {
	field     string
	selectors []string
}{
	{"address", []string{
		`[itemprop="streetAddress"]`,
		`[data-testid*="address"]`,
		`[class*="street-address"]`,
		`h1[class*="address"]`,
		`h1`,
	}},
	{"price", []string{
		`[itemprop="price"]`,
		`[data-testid*="price"]`,
		`[class*="list-price"]`,
		`[class*="price"]`,
	}},
	{"bedrooms", []string{
		`[itemprop="numberOfRooms"]`,
		`[data-testid*="bed"]`,
		`[class*="beds"]`,
	}},
	{"bathrooms", []string{
		`[data-testid*="bath"]`,
		`[class*="baths"]`,
	}},
	{"squareFeet", []string{
		`[data-testid*="sqft"]`,
		`[class*="sqft"]`,
	}},
	{"description", []string{
		`[itemprop="description"]`,
		`[data-testid*="description"]`,
	}},
}

func applySelectorHeuristics(doc *goquery.Document, l *models.ExtractedListing) {
	for _, rule := range selectorRules {
		if fieldValue(l, rule.field) != "" {
			continue
		}
		for _, sel := range rule.selectors {
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if text == "" {
				continue
			}
			setField(l, rule.field, text)
			break
		}
	}
}

func fieldValue(l *models.ExtractedListing, field string) string {
	switch field {
	case "address":
		return l.Address
	case "price":
		return l.Price
	case "bedrooms":
		return l.Bedrooms
	case "bathrooms":
		return l.Bathrooms
	case "squareFeet":
		return l.SquareFeet
	case "description":
		return l.Description
	}
	return ""
}

func setField(l *models.ExtractedListing, field, value string) {
	switch field {
	case "address":
		// Headings sometimes carry the "$price | address" pattern too.
		if price, addr := splitPriceTitle(value); addr != "" {
			if l.Price == "" && price != "" {
				l.Price = price
			}
			value = addr
		}
		setAddressParts(l, value)
	case "price":
		if p := normalizePrice(value); p != "" {
			l.Price = p
		}
	case "bedrooms":
		l.Bedrooms = firstNumber(value)
	case "bathrooms":
		l.Bathrooms = firstNumber(value)
	case "squareFeet":
		l.SquareFeet = firstNumber(value)
	case "description":
		l.Description = value
	}
}

// collectImages gathers photo candidates from the record so far plus every
// <img> element, filters obvious non-photos, resolves relative URLs and
// hands the lot to the image pipeline for ranking and deduplication.
func collectImages(doc *goquery.Document, l *models.ExtractedListing, pageURL string) {
	base, _ := url.Parse(pageURL)

	candidates := append([]string(nil), l.ImageURLs...)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if skipImageRegexp.MatchString(src) {
			return
		}
		if base != nil {
			if ref, err := url.Parse(src); err == nil {
				src = base.ResolveReference(ref).String()
			}
		}
		candidates = append(candidates, src)
	})

	l.ImageURLs = images.Process(candidates)
	if l.ImageURL == "" && len(l.ImageURLs) > 0 {
		l.ImageURL = l.ImageURLs[0]
	}
}

// fallbackAddress derives a synthetic address when every strategy failed:
// first from the page title, then from the URL path, then a placeholder.
// Downstream validation still treats the record as incomplete; the
// placeholder just gives the pre-fill form something legible.
func fallbackAddress(title, pageURL string) string {
	title = strings.TrimSpace(title)
	if title != "" {
		// Drop the site-name suffix sites append after a separator.
		for _, sep := range []string{" | ", " - ", " – "} {
			if i := strings.Index(title, sep); i > 0 {
				title = title[:i]
				break
			}
		}
		if title = strings.TrimSpace(title); len(title) >= 5 {
			return title
		}
	}

	if u, err := url.Parse(pageURL); err == nil {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := len(segments) - 1; i >= 0; i-- {
			seg := urlSlugSepRegexp.ReplaceAllString(segments[i], " ")
			seg = strings.TrimSpace(seg)
			if len(seg) >= 5 && !strings.EqualFold(seg, "homedetails") {
				return seg
			}
		}
	}

	return "Property Listing"
}

// normalizePrice renders any price-ish string as a $-prefixed,
// comma-grouped integer, or "" when no number is present.
func normalizePrice(raw string) string {
	value, ok := services.ParseNumeric(raw)
	if !ok || value <= 0 {
		return ""
	}
	return services.FormatPrice(value)
}

func firstNumber(raw string) string {
	value, ok := services.ParseNumeric(raw)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
