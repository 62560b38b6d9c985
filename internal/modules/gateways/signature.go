package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

func hmacSHA256(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

// hexEqual compares a hex-encoded signature against a computed MAC in
// constant time. A malformed hex value never matches.
func hexEqual(wantHex string, sum []byte) bool {
	want, err := hex.DecodeString(wantHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, sum) == 1
}
