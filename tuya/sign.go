package tuya

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Request signing for the device cloud. Two modes exist and must not be
// conflated: business calls sign client_id + t + nonce + stringToSign, where
// stringToSign is the method, the SHA256 of the body and the path with query,
// each on its own line (the blank third line is the canonical-headers
// placeholder the provider reserves). Token acquisition signs only
// client_id + t. Both produce uppercase hex HMAC-SHA256 keyed by the secret.

// SignRequest computes the business-mode signature. body is the serialized
// request body, empty for body-less calls. timestamp is millisecond epoch as a
// string, nonce a fresh UUID per call.
func SignRequest(clientID, clientSecret, method, pathWithQuery, body, timestamp, nonce string) string {
	bodyHash := sha256.Sum256([]byte(body))
	stringToSign := strings.ToUpper(method) + "\n" + hex.EncodeToString(bodyHash[:]) + "\n" + "\n" + pathWithQuery
	return signHex(clientSecret, clientID+timestamp+nonce+stringToSign)
}

// SignToken computes the simpler signature used only for token acquisition.
func SignToken(clientID, clientSecret, timestamp string) string {
	return signHex(clientSecret, clientID+timestamp)
}

func signHex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(message))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
