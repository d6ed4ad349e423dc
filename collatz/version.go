package collatz

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the module version.
const Version = "v0.4.0"

// ErrInvalidVersion is returned for a string that is not a semantic version.
var ErrInvalidVersion = errors.New("invalid semantic version")

// Info describes the build.
type Info struct {
	// Version is the module version.
	Version string

	// Algorithm names the hazard auditor's algorithm.
	Algorithm string

	// DefaultBound is the default histogram bound.
	DefaultBound int
}

// GetInfo returns information about this build.
func GetInfo() Info {
	return Info{
		Version:      Version,
		Algorithm:    "FastTrack (PLDI 2009)",
		DefaultBound: DefaultBound,
	}
}

// Canonical returns v with a leading "v" in semver canonical form.
func Canonical(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	if !semver.IsValid(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}

	return semver.Canonical(v), nil
}

// VersionAtLeast reports whether Version satisfies the minimum required.
// "1.2" and "v1.2.0" are equivalent.
func VersionAtLeast(required string) (bool, error) {
	req, err := Canonical(required)
	if err != nil {
		return false, err
	}

	return semver.Compare(Version, req) >= 0, nil
}
