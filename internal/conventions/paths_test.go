package conventions_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/rtboot/internal/conventions"
)

func TestImageTag(t *testing.T) {
	tests := map[string]struct {
		recipe string
		digest string
		expTag string
	}{
		"A long digest should be truncated.": {
			recipe: "app",
			digest: "0123456789abcdef0123",
			expTag: "rtboot/app:0123456789ab",
		},

		"A short digest should be used as is.": {
			recipe: "app",
			digest: "abc",
			expTag: "rtboot/app:abc",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expTag, conventions.ImageTag(test.recipe, test.digest))
		})
	}
}

func TestRootPath(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(filepath.Join("/tmp/root", "app"), conventions.RootPath("/tmp/root", "/app"))
	assert.Equal(filepath.Join("/", "app"), conventions.RootPath("/", "/app"))
}

func TestDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/u/.rtboot", "rtboot.db"), conventions.DBPath("/home/u/.rtboot"))
}

func TestImageDigest(t *testing.T) {
	assert := assert.New(t)

	d := conventions.ImageDigest("FROM x\n", "abc")
	assert.Len(d, 64)
	assert.Equal(d, conventions.ImageDigest("FROM x\n", "abc"))
	assert.NotEqual(d, conventions.ImageDigest("FROM x\n", "abd"))
	assert.NotEqual(d, conventions.ImageDigest("FROM x\nabc", ""))
}
