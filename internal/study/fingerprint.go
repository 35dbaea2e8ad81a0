package study

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a stable pseudo-identifier from client-visible request
// metadata. It is used only as a duplicate-participation heuristic: clients
// behind a shared proxy with identical headers collide on purpose, and a
// participant who clears nothing but changes networks gets a fresh value.
// Missing fields hash as empty strings; the function never fails.
func Fingerprint(clientIP, userAgent, acceptLanguage, acceptEncoding string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		clientIP,
		userAgent,
		acceptLanguage,
		acceptEncoding,
	}, "|")))
	return hex.EncodeToString(sum[:])
}
