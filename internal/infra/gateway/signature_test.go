//go:build !integration

package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func sign(body, salt, index string) string {
	sum := sha256.Sum256([]byte(body + salt))
	return hex.EncodeToString(sum[:]) + "###" + index
}

func TestVerifyWebhookSignature(t *testing.T) {
	const (
		salt  = "salt-secret"
		index = "1"
		body  = "eyJjb2RlIjoiUEFZTUVOVF9TVUNDRVNTIn0="
	)

	t.Run("accepts a valid signature", func(t *testing.T) {
		if !VerifyWebhookSignature(salt, index, body, sign(body, salt, index)) {
			t.Error("expected the signature to verify")
		}
	})

	t.Run("accepts case-insensitive hex", func(t *testing.T) {
		upper := strings.ToUpper(sign(body, salt, index))
		// the salt index suffix survives ToUpper unchanged for digits
		if !VerifyWebhookSignature(salt, index, body, upper) {
			t.Error("expected an upper-cased signature to verify")
		}
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		if VerifyWebhookSignature(salt, index, body+"x", sign(body, salt, index)) {
			t.Error("expected a tampered body to fail")
		}
	})

	t.Run("rejects the wrong salt", func(t *testing.T) {
		if VerifyWebhookSignature(salt, index, body, sign(body, "other-salt", index)) {
			t.Error("expected a foreign signature to fail")
		}
	})

	t.Run("rejects a mismatched salt index", func(t *testing.T) {
		if VerifyWebhookSignature(salt, index, body, sign(body, salt, "2")) {
			t.Error("expected a mismatched key version to fail")
		}
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		if VerifyWebhookSignature(salt, index, body, "") {
			t.Error("expected an empty signature to fail")
		}
	})
}
