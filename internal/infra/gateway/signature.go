package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks that an inbound callback genuinely
// originates from the gateway: signature = SHA256(base64Body + salt) +
// "###" + saltIndex, delivered in the X-VERIFY header.
func VerifyWebhookSignature(salt, saltIndex, encodedBody, signature string) bool {
	sum := sha256.Sum256([]byte(encodedBody + salt))
	expected := hex.EncodeToString(sum[:]) + "###" + saltIndex
	return strings.EqualFold(expected, signature)
}
