// Package version compares package versions as semantic versions.
//
// Package versions such as "25.11" carry no "v" prefix; it is added before
// handing them to golang.org/x/mod/semver.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Canonical returns the semver form of v ("25.11" -> "v25.11.0"), or ""
// when v is not a valid version.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// Valid reports whether v is a valid version.
func Valid(v string) bool {
	return Canonical(v) != ""
}

// AtLeast reports whether v >= min. Invalid versions never satisfy a bound.
func AtLeast(v, min string) bool {
	cv, cm := Canonical(v), Canonical(min)
	if cv == "" || cm == "" {
		return false
	}
	return semver.Compare(cv, cm) >= 0
}
