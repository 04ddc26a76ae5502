package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GravatarURL builds the Gravatar image URL for an email address. Used as
// the avatar fallback when the OAuth provider returns no picture. Size
// defaults to 96px, matching what the providers usually hand out.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = 96
	}

	email = strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(email))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
