// Package canonical derives the identity fingerprint that binds an
// administrative record to its survey record.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

const separator = "|"

// Key returns the lowercase hex SHA-256 of state|district|surveyNumber|surveyID.
// Inputs are hashed byte-for-byte with no trimming, case folding or escaping
// so keys stay comparable with those already stored in the registry.
func Key(state, district, surveyNumber, surveyID string) string {
	sum := sha256.Sum256([]byte(state + separator + district + separator + surveyNumber + separator + surveyID))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s has the shape of a canonical key.
func Valid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
