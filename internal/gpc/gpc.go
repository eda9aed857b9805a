// Package gpc normalizes the Global Privacy Control opt-out signal.
package gpc

// HeaderName is the browser-sent opt-out header.
const HeaderName = "Sec-GPC"

// FromHeader reports whether a Sec-GPC header value asserts the opt-out.
// The spec defines exactly "1" as the on value; anything else is off.
func FromHeader(value string) bool {
	return value == "1"
}

// Evaluate folds the header signal and an explicit override (used for
// simulated requests) into the effective GPC state. The override wins when
// present; otherwise the header decides.
//
// The result is a hard opt-out downstream: the runtime resolver collapses
// purpose defaults and vendor eligibility when it is true, and catalog
// configuration can never weaken it.
func Evaluate(headerPresent bool, override *bool) bool {
	if override != nil {
		return *override
	}
	return headerPresent
}
