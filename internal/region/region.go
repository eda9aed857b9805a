// Package region maps resolved country codes to the regulatory region that
// selects the applicable consent framework family.
package region

import "strings"

// Region is the regulatory region a request falls under. It is derived per
// request and never stored independently of the request that produced it.
type Region string

const (
	EU Region = "EU"
	US Region = "US"
)

// IsValid checks if the region is one of the supported enum values.
func (r Region) IsValid() bool {
	return r == EU || r == US
}

// euCountries is the EU-27 plus the EEA states (IS, LI, NO). Codes outside
// this set resolve to US.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
	"IS": {}, "LI": {}, "NO": {},
}

// Classify maps a two-letter country code to a regulatory region. The
// override (a simulated country, e.g. from a test request) takes precedence
// over the resolved code. Unknown, empty or malformed input defaults to US.
// Pure function: no lookups beyond the static set, no side effects.
func Classify(countryCode, override string) Region {
	code := countryCode
	if override != "" {
		code = override
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := euCountries[code]; ok {
		return EU
	}
	return US
}

// Selection is the parsed region query parameter of the runtime endpoint.
// Auto means the caller wants classification from the country code; an
// explicit EU/US short-circuits it.
type Selection struct {
	Region Region
	Auto   bool
}

// ParseSelection interprets the region query parameter ("auto", "EU", "US";
// empty counts as auto). The second return value is false for anything else.
func ParseSelection(s string) (Selection, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AUTO":
		return Selection{Auto: true}, true
	case string(EU):
		return Selection{Region: EU}, true
	case string(US):
		return Selection{Region: US}, true
	}
	return Selection{}, false
}
