package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ClientToken derives a stable idempotency token from the given parts.
// The result is 64 lowercase hex characters, which satisfies the AWS
// client-token pattern.
func ClientToken(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
