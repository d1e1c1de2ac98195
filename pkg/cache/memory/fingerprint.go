package memory

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// analysisKeyLen is how many characters of a job description feed the analysis
// key. Descriptions that differ only after this point share a key.
const analysisKeyLen = 500

// Fingerprint computes the SHA-256 key of a normalized role and description.
func Fingerprint(role, description string) string {
	return hashText(role + "|" + description)
}

// AnalysisKey computes the SHA-256 key of a normalized description truncated to
// its first 500 characters.
func AnalysisKey(description string) string {
	return hashText(truncate(description, analysisKeyLen))
}

func hashText(s string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(s))))
	return fmt.Sprintf("%x", h)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
