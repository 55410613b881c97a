package util

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D+`)

const (
	DefaultCountryCode    = "91"
	DefaultNationalLength = 10
)

// PhoneNormalizer turns user-entered phone numbers into the digits-only form
// WhatsApp expects. It is a best-effort heuristic, not validation: numbers it
// cannot make sense of are passed through and rejected by the API.
type PhoneNormalizer struct {
	CountryCode    string // prepended to bare national numbers
	NationalLength int    // length of a national significant number
}

// NewPhoneNormalizer falls back to the +91 / 10 digit defaults for zero values.
func NewPhoneNormalizer(countryCode string, nationalLength int) PhoneNormalizer {
	countryCode = nonDigits.ReplaceAllString(countryCode, "")
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if nationalLength <= 0 {
		nationalLength = DefaultNationalLength
	}

	return PhoneNormalizer{CountryCode: countryCode, NationalLength: nationalLength}
}

// Normalize strips everything but digits and prefixes the country code when
// the result looks like a bare national number.
func (p PhoneNormalizer) Normalize(raw string) string {
	s := nonDigits.ReplaceAllString(strings.TrimSpace(raw), "")

	if !strings.HasPrefix(s, p.CountryCode) && len(s) == p.NationalLength {
		s = p.CountryCode + s
	}

	return s
}

// NormalizePhone normalizes with the default country code.
func NormalizePhone(raw string) string {
	return NewPhoneNormalizer("", 0).Normalize(raw)
}
