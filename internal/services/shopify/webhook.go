package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Webhook headers set by Shopify on every delivery.
const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// ValidateWebhook checks the base64 HMAC-SHA256 signature of a webhook body.
func ValidateWebhook(payload []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// SignWebhook computes the signature Shopify would send for payload.
func SignWebhook(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
