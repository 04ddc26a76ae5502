package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGravatarURL(t *testing.T) {
	// Known MD5 of "a@b.com".
	url := GravatarURL("a@b.com", 0)
	assert.Equal(t, "https://www.gravatar.com/avatar/357a20e8c56e69d6f9734d23ef9517e8?s=96&d=mp", url)
}

func TestGravatarURLNormalizesEmail(t *testing.T) {
	assert.Equal(t, GravatarURL("a@b.com", 0), GravatarURL("  A@B.COM  ", 0))
}

func TestGravatarURLCustomSize(t *testing.T) {
	assert.Contains(t, GravatarURL("a@b.com", 200), "s=200")
}
