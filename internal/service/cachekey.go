package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"storyweave/internal/models"
)

// CacheKey - отпечаток параметров запроса: hex(SHA-256) от нормализованных полей через "_".
// Интересы в ключ не входят.
func CacheKey(profile models.ProfileType, theme string, age, storyLength int) string {
	parts := []string{
		normalizeKeyPart(string(profile)),
		normalizeKeyPart(theme),
		strconv.Itoa(age),
		strconv.Itoa(storyLength),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
