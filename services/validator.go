package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"listing-extractor/models"
	"listing-extractor/utils"
)

var (
	// addressCharRegexp strips everything outside the address allow-list.
	addressCharRegexp = regexp.MustCompile(`[^a-zA-Z0-9\s,.#'/-]`)
	// priceLikeRegexp matches strings that are really just a price.
	priceLikeRegexp = regexp.MustCompile(`^\$?[\d,]+(?:\.\d+)?$`)
	// suspiciousPrefixRegexp catches scraped labels masquerading as addresses.
	suspiciousPrefixRegexp = regexp.MustCompile(`(?i)^(price|listing|property|error)\b`)
	// numericRegexp captures the first numeric value in a string.
	numericRegexp = regexp.MustCompile(`-?[\d,]+(?:\.\d+)?`)
	// digitRegexp finds any digit.
	digitRegexp = regexp.MustCompile(`\d`)
	// nonDigitRegexp strips everything that is not a digit.
	nonDigitRegexp = regexp.MustCompile(`\D`)
	// cityCharRegexp strips non-letter characters besides hyphen,
	// apostrophe and spaces from city names.
	cityCharRegexp = regexp.MustCompile(`[^a-zA-Z\s'-]`)
	// validImageRegexp recognizes a usable photo URL.
	validImageRegexp = regexp.MustCompile(`(?i)^https?://.+\.(jpe?g|png|webp|gif)(\?.*)?$`)
)

// Confidence penalties per issue kind. Confidence starts at 100 and each
// raised issue subtracts its penalty, clamped to [0,100].
const (
	penaltyAddress      = 20
	penaltyCity         = 5
	penaltyState        = 15
	penaltyZip          = 10
	penaltyPriceError   = 15
	penaltyPriceWarning = 5
	penaltyNumericError = 10
	penaltyImplausible  = 5
	penaltyMLS          = 3
	penaltyImages       = 2
	penaltyCrossField   = 3
	penaltyPricePerSqft = 5
)

// Validator cleans and validates extracted listing records. It never fails;
// findings come back as data so callers can still accept low-confidence
// results.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// validation tracks state across the per-field passes of one Validate call.
type validation struct {
	issues  []models.ValidationIssue
	penalty int
	blocked bool
}

func (v *validation) add(field string, sev models.Severity, msg, original, suggested string, penalty int) {
	v.issues = append(v.issues, models.ValidationIssue{
		Field:          field,
		Severity:       sev,
		Message:        msg,
		OriginalValue:  original,
		SuggestedValue: suggested,
	})
	v.penalty += penalty
}

// Validate cleans every populated field of the record, flags anomalies and
// computes a 0-100 confidence score. The input is never mutated.
func (val *Validator) Validate(in *models.ExtractedListing) *models.ValidationResult {
	cleaned := *in
	cleaned.ImageURLs = append([]string(nil), in.ImageURLs...)
	cleaned.Features = append([]string(nil), in.Features...)

	v := &validation{}

	// Block-page detection runs first: a CAPTCHA interstitial can leak its
	// text into any scraped field, and such a record must never look valid.
	if IsBlockPage(cleaned.Address) || IsBlockPage(cleaned.Description) {
		v.add("address", models.SeverityError,
			"Page content indicates a bot-block or CAPTCHA page, not a listing", in.Address, "", 0)
		v.blocked = true
		cleaned.Address = ""
		cleaned.Description = ""
	}

	val.cleanAddress(&cleaned, v)
	val.cleanCity(&cleaned, v)
	val.cleanState(&cleaned, v)
	val.cleanZip(&cleaned, v)
	val.cleanPrice(&cleaned, v)
	val.cleanBedrooms(&cleaned, v)
	val.cleanBathrooms(&cleaned, v)
	val.cleanSquareFeet(&cleaned, v)
	val.cleanYearBuilt(&cleaned, v)
	val.cleanMLSID(&cleaned, v)
	val.cleanImages(&cleaned, v)
	val.crossFieldChecks(&cleaned, v)

	confidence := 100 - v.penalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	if v.blocked {
		confidence = 0
	}

	isValid := cleaned.Address != ""
	for _, issue := range v.issues {
		if issue.Severity == models.SeverityError {
			isValid = false
			break
		}
	}

	if len(v.issues) > 0 {
		val.logger.Debug("[validator] %s — %d issue(s), confidence %d",
			in.URL, len(v.issues), confidence)
	}

	return &models.ValidationResult{
		IsValid:     isValid,
		Issues:      v.issues,
		CleanedData: &cleaned,
		Confidence:  confidence,
	}
}

func (val *Validator) cleanAddress(l *models.ExtractedListing, v *validation) {
	if l.Address == "" {
		return
	}
	original := l.Address
	addr := normaliseText(original)
	addr = addressCharRegexp.ReplaceAllString(addr, "")
	addr = normaliseText(addr)
	l.Address = addr

	// A rejected address is cleared rather than kept: downstream treats an
	// empty address as "required field missing" and falls back to manual
	// entry instead of pre-filling garbage.
	errorsBefore := len(v.issues)
	defer func() {
		if len(v.issues) > errorsBefore {
			l.Address = ""
		}
	}()

	lower := strings.ToLower(addr)
	switch {
	case len(addr) < 5:
		v.add("address", models.SeverityError,
			"Address is too short to be a real street address", original, "", penaltyAddress)
	case priceLikeRegexp.MatchString(addr):
		v.add("address", models.SeverityError,
			"Address looks like a price, not a street address", original, "", penaltyAddress)
	case suspiciousPrefixRegexp.MatchString(addr):
		v.add("address", models.SeverityError,
			"Address starts with a page label rather than a street address", original, "", penaltyAddress)
	case strings.Contains(lower, "access denied") || strings.Contains(lower, "captcha"):
		v.add("address", models.SeverityError,
			"Address contains bot-block text", original, "", penaltyAddress)
	case !digitRegexp.MatchString(addr):
		v.add("address", models.SeverityError,
			"Address contains no house number", original, "", penaltyAddress)
	}
}

func (val *Validator) cleanCity(l *models.ExtractedListing, v *validation) {
	if l.City == "" {
		return
	}
	original := l.City
	city := cityCharRegexp.ReplaceAllString(original, "")
	city = titleCase(normaliseText(city))
	l.City = city

	switch {
	case !nonDigitRegexp.MatchString(original):
		v.add("city", models.SeverityWarning,
			"City is purely numeric", original, "", penaltyCity)
	case len(city) < 2:
		v.add("city", models.SeverityWarning,
			"City name is implausibly short", original, "", penaltyCity)
	case len(city) > 50:
		v.add("city", models.SeverityWarning,
			"City name is implausibly long", original, "", penaltyCity)
	}
}

func (val *Validator) cleanState(l *models.ExtractedListing, v *validation) {
	if l.State == "" {
		return
	}
	original := l.State
	state := strings.ToUpper(normaliseText(original))
	if code, ok := stateNameToCode[state]; ok {
		state = code
	}
	l.State = state

	if _, ok := validStateCodes[state]; !ok {
		v.add("state", models.SeverityError,
			fmt.Sprintf("%q is not a recognized US state", original), original, "", penaltyState)
	}
}

func (val *Validator) cleanZip(l *models.ExtractedListing, v *validation) {
	if l.Zip == "" {
		return
	}
	original := l.Zip
	digits := nonDigitRegexp.ReplaceAllString(original, "")

	switch {
	case len(digits) == 5:
		l.Zip = digits
	case len(digits) == 9:
		l.Zip = digits[:5] + "-" + digits[5:]
	case len(digits) > 5:
		l.Zip = digits[:5]
		v.add("zip", models.SeverityInfo,
			"ZIP code truncated to five digits", original, l.Zip, 0)
	default:
		v.add("zip", models.SeverityError,
			"ZIP code is not a valid 5-digit or ZIP+4 code", original, "", penaltyZip)
	}
}

func (val *Validator) cleanPrice(l *models.ExtractedListing, v *validation) {
	if l.Price == "" {
		return
	}
	original := l.Price
	value, ok := ParseNumeric(original)
	if !ok {
		v.add("price", models.SeverityError,
			"Price is not numeric", original, "", penaltyPriceError)
		return
	}
	if value <= 0 {
		v.add("price", models.SeverityError,
			"Price must be positive", original, "", penaltyPriceError)
		return
	}

	// Implausible values are flagged but still cleaned: downstream forms
	// always get something to show.
	if value < 1000 {
		v.add("price", models.SeverityWarning,
			"Price is unusually low for a property listing", original, "", penaltyPriceWarning)
	} else if value > 500_000_000 {
		v.add("price", models.SeverityWarning,
			"Price is unusually high for a property listing", original, "", penaltyPriceWarning)
	}

	l.Price = FormatPrice(value)
}

func (val *Validator) cleanBedrooms(l *models.ExtractedListing, v *validation) {
	if l.Bedrooms == "" {
		return
	}
	original := l.Bedrooms
	value, ok := ParseNumeric(original)
	if !ok || value < 0 {
		v.add("bedrooms", models.SeverityError,
			"Bedroom count must be a non-negative number", original, "", penaltyNumericError)
		return
	}
	if value > 20 {
		v.add("bedrooms", models.SeverityWarning,
			"Bedroom count is implausibly high", original, "", penaltyImplausible)
	}
	l.Bedrooms = strconv.Itoa(int(value))
}

func (val *Validator) cleanBathrooms(l *models.ExtractedListing, v *validation) {
	if l.Bathrooms == "" {
		return
	}
	original := l.Bathrooms
	value, ok := ParseNumeric(original)
	if !ok || value < 0 {
		v.add("bathrooms", models.SeverityError,
			"Bathroom count must be a non-negative number", original, "", penaltyNumericError)
		return
	}
	if value > 30 {
		v.add("bathrooms", models.SeverityWarning,
			"Bathroom count is implausibly high", original, "", penaltyImplausible)
	}
	// Half-baths are legitimate, so keep the decimal when present.
	l.Bathrooms = strconv.FormatFloat(value, 'f', -1, 64)
}

func (val *Validator) cleanSquareFeet(l *models.ExtractedListing, v *validation) {
	if l.SquareFeet == "" {
		return
	}
	original := l.SquareFeet
	value, ok := ParseNumeric(original)
	if !ok || value < 0 {
		v.add("squareFeet", models.SeverityError,
			"Square footage must be a non-negative number", original, "", penaltyNumericError)
		return
	}
	if value < 100 || value > 100_000 {
		v.add("squareFeet", models.SeverityWarning,
			"Square footage is outside the plausible range", original, "", penaltyImplausible)
	}
	l.SquareFeet = strconv.Itoa(int(value))
}

func (val *Validator) cleanYearBuilt(l *models.ExtractedListing, v *validation) {
	if l.YearBuilt == "" {
		return
	}
	original := l.YearBuilt
	value, ok := ParseNumeric(original)
	if !ok {
		v.add("yearBuilt", models.SeverityError,
			"Year built is not numeric", original, "", penaltyNumericError)
		return
	}
	year := int(value)
	nextYear := time.Now().Year() + 1
	if year < 1600 || year > nextYear {
		v.add("yearBuilt", models.SeverityWarning,
			fmt.Sprintf("Year built should be between 1600 and %d", nextYear),
			original, "", penaltyImplausible)
	}
	l.YearBuilt = strconv.Itoa(year)
}

func (val *Validator) cleanMLSID(l *models.ExtractedListing, v *validation) {
	if l.MLSID == "" {
		return
	}
	original := l.MLSID
	mls := strings.Join(strings.Fields(original), "")
	l.MLSID = mls

	if len(mls) < 3 || len(mls) > 20 {
		v.add("mlsId", models.SeverityWarning,
			"MLS ID length is outside the usual range", original, "", penaltyMLS)
	}
}

func (val *Validator) cleanImages(l *models.ExtractedListing, v *validation) {
	if len(l.ImageURLs) == 0 {
		return
	}
	kept := make([]string, 0, len(l.ImageURLs))
	for _, u := range l.ImageURLs {
		if validImageRegexp.MatchString(u) {
			kept = append(kept, u)
		}
	}
	dropped := len(l.ImageURLs) - len(kept)
	l.ImageURLs = kept

	if dropped > 0 {
		v.add("imageUrls", models.SeverityWarning,
			fmt.Sprintf("Removed %d non-image or malformed photo URL(s)", dropped),
			"", "", penaltyImages)
	}
	if l.ImageURL == "" && len(kept) > 0 {
		l.ImageURL = kept[0]
	}
}

func (val *Validator) crossFieldChecks(l *models.ExtractedListing, v *validation) {
	if l.City != "" && l.State == "" {
		v.add("state", models.SeverityWarning,
			"City is present but state is missing", "", "", penaltyCrossField)
	}
	if l.State != "" && l.City == "" {
		v.add("city", models.SeverityInfo,
			"State is present but city is missing", "", "", 0)
	}

	price, okPrice := ParseNumeric(l.Price)
	sqft, okSqft := ParseNumeric(l.SquareFeet)
	if okPrice && okSqft && price > 0 && sqft > 0 {
		perSqft := price / sqft
		if perSqft < 10 || perSqft > 2000 {
			v.add("price", models.SeverityWarning,
				fmt.Sprintf("Price per square foot ($%.0f) is outside sanity bounds", perSqft),
				"", "", penaltyPricePerSqft)
		}
	}
}

// FormatPrice renders a numeric price as a $-prefixed, comma-grouped
// integer string.
func FormatPrice(value float64) string {
	n := int64(value + 0.5)
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// ParseNumeric extracts the first numeric value from a string that may
// carry currency symbols, commas or unit suffixes.
func ParseNumeric(raw string) (float64, bool) {
	match := numericRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// titleCase upper-cases the first letter of every word, leaving the rest
// lower-cased.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
