package share

import (
	"crypto/rand"
	"encoding/base64"
)

const idLength = 10

// GenerateID returns a short random URL-safe identifier. 10 random
// bytes give 80 bits of entropy, enough that ids are never reused in
// practice.
func GenerateID() string {
	bytes := make([]byte, idLength)
	if _, err := rand.Read(bytes); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
