package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature is the gateway's callback signature: hex(HMAC-SHA256(secret, orderID|paymentID)).
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(orderID, paymentID, signature, secret string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	expected := Signature(orderID, paymentID, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
