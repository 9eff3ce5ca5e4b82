// Package parser turns raw listing markup into normalized (but not yet
// validated) listing records. One strategy exists per supported source plus
// a generic fallback; every strategy is best-effort and never fails on
// malformed input.
package parser

import (
	"listing-extractor/models"
	"listing-extractor/platform"
	"listing-extractor/utils"
)

// Parse dispatches to the parser for the given platform. The switch is
// exhaustive over the platform enum so adding a source is a compile-checked
// change.
func Parse(p platform.Platform, html, url string, logger *utils.Logger) *models.ExtractedListing {
	switch p {
	case platform.Zillow:
		return ParseZillow(html, url, logger)
	case platform.Realtor:
		return parseRealtor(html, url, logger)
	case platform.Redfin:
		return parseRedfin(html, url, logger)
	case platform.Trulia, platform.Homes, platform.Generic:
		return ParseGeneric(html, url, logger)
	}
	return ParseGeneric(html, url, logger)
}

// parseRealtor delegates to the generic parser. Realtor pages carry good
// JSON-LD; bespoke selectors can slot in here if that changes.
func parseRealtor(html, url string, logger *utils.Logger) *models.ExtractedListing {
	return ParseGeneric(html, url, logger)
}

// parseRedfin delegates to the generic parser, which handles Redfin's
// Open Graph tags and meta description well.
func parseRedfin(html, url string, logger *utils.Logger) *models.ExtractedListing {
	return ParseGeneric(html, url, logger)
}
