package models

// ExtractedListing is the canonical output record of the extraction engine.
// Every field except the photo list is a plain string; empty means unknown.
// Numeric fields stay string-encoded so "unknown" and "zero" remain distinct.
type ExtractedListing struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`

	Price      string `json:"price"`
	Bedrooms   string `json:"bedrooms"`
	Bathrooms  string `json:"bathrooms"`
	SquareFeet string `json:"squareFeet"`

	Status      string `json:"status"`
	MLSID       string `json:"mlsId"`
	Description string `json:"description"`
	Title       string `json:"title"`

	ImageURL  string   `json:"imageUrl"`
	ImageURLs []string `json:"imageUrls"`

	// URL is the source listing URL and is always present.
	URL string `json:"url"`

	// Extended detail fields, populated opportunistically.
	PropertyType string   `json:"propertyType,omitempty"`
	YearBuilt    string   `json:"yearBuilt,omitempty"`
	LotSize      string   `json:"lotSize,omitempty"`
	Features     []string `json:"features,omitempty"`
	HOAFee       string   `json:"hoaFee,omitempty"`
	AnnualTax    string   `json:"annualTax,omitempty"`
}

// Severity classifies how serious a validation issue is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationIssue describes a single finding from the validation pipeline.
// Issues are advisory; only error-severity issues on required fields flip
// the overall validity flag.
type ValidationIssue struct {
	Field          string   `json:"field"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	OriginalValue  string   `json:"originalValue,omitempty"`
	SuggestedValue string   `json:"suggestedValue,omitempty"`
}

// ValidationResult is the outcome of running the validation pipeline over
// an extracted record.
type ValidationResult struct {
	IsValid     bool              `json:"isValid"`
	Issues      []ValidationIssue `json:"issues"`
	CleanedData *ExtractedListing `json:"cleanedData"`
	Confidence  int               `json:"confidence"` // 0-100
}

// ExtractionResult is the orchestrator's output, safe to cross a process
// boundary as plain JSON.
type ExtractionResult struct {
	Success         bool              `json:"success"`
	Data            *ExtractedListing `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ExtractedFields []string          `json:"extractedFields,omitempty"`
	MissingFields   []string          `json:"missingFields,omitempty"`
	Validation      *ValidationResult `json:"validation,omitempty"`
}

// requiredFields are the fields downstream validation treats as structurally
// required. Currently just the address.
var requiredFields = []string{"address"}

// fieldValues maps every optionally-populated field name to its value.
func (l *ExtractedListing) fieldValues() map[string]string {
	m := map[string]string{
		"address":      l.Address,
		"city":         l.City,
		"state":        l.State,
		"zip":          l.Zip,
		"price":        l.Price,
		"bedrooms":     l.Bedrooms,
		"bathrooms":    l.Bathrooms,
		"squareFeet":   l.SquareFeet,
		"status":       l.Status,
		"mlsId":        l.MLSID,
		"description":  l.Description,
		"title":        l.Title,
		"imageUrl":     l.ImageURL,
		"propertyType": l.PropertyType,
		"yearBuilt":    l.YearBuilt,
		"lotSize":      l.LotSize,
		"hoaFee":       l.HOAFee,
		"annualTax":    l.AnnualTax,
	}
	if len(l.ImageURLs) > 0 {
		m["imageUrls"] = l.ImageURLs[0]
	}
	return m
}

// fieldOrder gives a stable ordering for reported field sets.
var fieldOrder = []string{
	"address", "city", "state", "zip",
	"price", "bedrooms", "bathrooms", "squareFeet",
	"status", "mlsId", "description", "title",
	"imageUrl", "imageUrls",
	"propertyType", "yearBuilt", "lotSize", "hoaFee", "annualTax",
}

// PopulatedFields returns the names of all non-empty fields in stable order.
func (l *ExtractedListing) PopulatedFields() []string {
	values := l.fieldValues()
	var out []string
	for _, name := range fieldOrder {
		if values[name] != "" {
			out = append(out, name)
		}
	}
	return out
}

// MissingRequiredFields returns the required fields that are still empty.
func (l *ExtractedListing) MissingRequiredFields() []string {
	values := l.fieldValues()
	var out []string
	for _, name := range requiredFields {
		if values[name] == "" {
			out = append(out, name)
		}
	}
	return out
}
