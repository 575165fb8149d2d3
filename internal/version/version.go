// Package version provides the release version of the module.
package version

import "fmt"

// Build information, overridden at link time.
var (
	major = 0
	minor = 9
	patch = 0
)

// SemVersion is a semantic version.
type SemVersion struct {
	Major int
	Minor int
	Patch int
}

// String returns the version in the major.minor.patch format.
func (v SemVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Current returns the current version.
func Current() SemVersion {
	return SemVersion{Major: major, Minor: minor, Patch: patch}
}
