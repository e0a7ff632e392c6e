package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// gatewaySignature computes the HMAC the payment gateway attaches to its
// confirmation callbacks, keyed by the shared webhook secret.
func gatewaySignature(secret, enrollmentID, externalRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(enrollmentID + "|" + externalRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyGatewaySignature(secret, enrollmentID, externalRef, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := gatewaySignature(secret, enrollmentID, externalRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignGatewayCallback produces the signature a gateway integration test or
// sandbox callback must send. Exposed for tooling; verification lives on the
// services that consume callbacks.
func SignGatewayCallback(secret, enrollmentID, externalRef string) string {
	return gatewaySignature(secret, enrollmentID, externalRef)
}
