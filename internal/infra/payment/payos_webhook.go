package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// VerifyPayOSWebhookSignature checks the HMAC-SHA256 signature PayOS attaches
// to webhook payloads: the data fields are sorted by key, joined as
// key=value pairs with '&', and signed with the checksum key.
func VerifyPayOSWebhookSignature(checksumKey string, data map[string]string, signature string) bool {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, data[k]))
	}

	h := hmac.New(sha256.New, []byte(checksumKey))
	h.Write([]byte(strings.Join(pairs, "&")))
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(signature)))
}
