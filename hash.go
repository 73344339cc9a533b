package locsync

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText computes the SHA-256 hash of text. The text is hashed exactly as
// given, so values that differ only in whitespace hash differently.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a cache key from a text hash and the language pair.
func CacheKey(hash, sourceLang, targetLang string) string {
	return hash + ":" + NormalizeLocale(sourceLang) + ":" + NormalizeLocale(targetLang)
}

// CacheKeyExtended additionally scopes the key to an AI model.
// Use this when translations from different models must not be mixed.
func CacheKeyExtended(hash, sourceLang, targetLang, model string) string {
	return CacheKey(hash, sourceLang, targetLang) + ":" + model
}
