package coinpayments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the hex HMAC on both IPN deliveries and API calls.
const SignatureHeader = "HMAC"

// Sign returns the lowercase hex HMAC-SHA512 of body keyed with secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares presented against the HMAC of the exact raw body.
// An empty secret or signature never verifies.
func VerifySignature(rawBody []byte, presented, secret string) bool {
	presented = strings.TrimSpace(presented)
	if secret == "" || presented == "" {
		return false
	}
	expected := Sign(rawBody, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(presented)))
}
