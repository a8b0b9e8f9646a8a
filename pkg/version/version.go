package version

import (
	"strings"

	"github.com/Masterminds/semver"
)

var (
	// Version contains the current version of netifmon
	Version = "dev"

	// CommitHash contains the current git commit hash
	CommitHash = "unknown"

	// BuildTime contains the time of build
	BuildTime = "unknown"
)

const (
	libraryName      = "netifmon"
	libraryCopyright = "Copyright (C) 2025 dmdmdm-nz"
)

func LibraryName() string      { return libraryName }
func LibraryVersion() string   { return Version }
func LibraryCopyright() string { return libraryCopyright }

// Semver parses Version. Development builds report 0.0.0-dev.
func Semver() *semver.Version {
	v, err := semver.NewVersion(strings.TrimPrefix(Version, "v"))
	if err != nil {
		return semver.MustParse("0.0.0-" + sanitize(Version))
	}
	return v
}

func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "dev"
	}
	return sb.String()
}
