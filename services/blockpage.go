package services

import "strings"

// blockSignatures are textual fingerprints of anti-bot interstitials. One
// shared list serves both the field-level validator and the orchestrator's
// raw-markup scan so the two layers can never disagree on what a block
// page looks like.
var blockSignatures = []string{
	"access to this page has been denied",
	"access denied",
	"request blocked",
	"px-captcha",
	"captcha",
	"are you a human",
	"robot or human",
	"verify you are a human",
	"pardon our interruption",
	"enable javascript and cookies to continue",
	"unusual traffic from your computer network",
}

// IsBlockPage reports whether the text carries a known bot-block or
// CAPTCHA signature.
func IsBlockPage(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, sig := range blockSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
