package shopify

import (
	"encoding/json"
	"fmt"
)

// RemoteEntity is a raw Shopify payload: REST snake_case or GraphQL
// camelCase, with any field possibly missing.
type RemoteEntity map[string]interface{}

// Shop represents shop information
type Shop struct {
	ID              json.Number `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Domain          string      `json:"domain"`
	MyshopifyDomain string      `json:"myshopify_domain"`
	Currency        string      `json:"currency"`
	IanaTimezone    string      `json:"iana_timezone"`
	PlanName        string      `json:"plan_name"`
}

// APIError is a non-2xx answer from the Admin API. The body is kept for
// diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}
