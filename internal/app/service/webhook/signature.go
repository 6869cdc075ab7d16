package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature reports whether header is a valid hex-encoded
// HMAC-SHA256 of body under secret. It must run on the raw request bytes
// before any JSON parsing. It never fails open: a missing header,
// non-hex header, or empty secret all verify false. Comparison is
// constant time.
func VerifySignature(body []byte, header string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	// Tolerate the "sha256=" prefix some provider configurations send.
	header = strings.TrimPrefix(header, "sha256=")

	want, err := hex.DecodeString(header)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(want, mac.Sum(nil))
}

// SignBody computes the hex signature the provider would send for body.
// Used by tests and by operators replaying stored payloads.
func SignBody(body []byte, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
