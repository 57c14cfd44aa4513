package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Sign computes the hex HMAC-SHA512 of body under the IPN secret.
func (c *Client) Sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.IPNSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the webhook signature header against the exact
// raw request body. The compare is constant time.
func (c *Client) VerifySignature(rawBody []byte, signature string) bool {
	if c.cfg.IPNSecret == "" {
		c.log.Warn("gateway: IPN secret not configured, rejecting webhook")
		return false
	}
	expected := c.Sign(rawBody)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
