package tool

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateShareID returns the id a share is stored under.
func GenerateShareID() string {
	return strings.ReplaceAll(GenerateRandomUUID(), "-", "")
}

// GenerateShareToken returns a URL-safe link token (15 random bytes, 20 chars).
// Falls back to a uuid when the system random source fails.
func GenerateShareToken() string {
	b := make([]byte, 15)
	if _, err := rand.Read(b); err != nil {
		return GenerateShareID()[:20] // fallback
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
