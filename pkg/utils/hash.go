package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// HashKey joins parts with a separator that cannot appear in form input and
// returns a short stable key suitable for cache keys and directory names.
func HashKey(parts ...string) string {
	return HashString(strings.Join(parts, "\x1f"))[:16]
}
