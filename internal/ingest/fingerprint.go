package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a stable identity for a message from its subject
// and raw date header. Whitespace and case differences in either field
// do not change the fingerprint.
func Fingerprint(subject, date string) string {
	key := strings.ToLower(strings.TrimSpace(subject)) + strings.ToLower(strings.TrimSpace(date))
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
