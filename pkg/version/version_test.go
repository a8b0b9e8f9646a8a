package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemver(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.4.2"
	assert.Equal(t, "1.4.2", Semver().String())

	Version = "dev"
	assert.Equal(t, "0.0.0-dev", Semver().String())

	Version = "not a version!"
	assert.Equal(t, "0.0.0-notaversion", Semver().String())
}

func TestLibraryIdentity(t *testing.T) {
	assert.Equal(t, "netifmon", LibraryName())
	assert.Equal(t, Version, LibraryVersion())
	assert.Contains(t, LibraryCopyright(), "Copyright")
}
