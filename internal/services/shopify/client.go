package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"granito/internal/config"
	"granito/internal/logger"
	"granito/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 250
)

// ErrNotConfigured is returned when the shop domain or access token is missing.
var ErrNotConfigured = errors.New("shopify is not configured: SHOPIFY_SHOP_DOMAIN and SHOPIFY_ACCESS_TOKEN are required")

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *logger.Logger
}

func NewClient(shopDomain, accessToken, apiVersion string, logger *logger.Logger) *Client {
	return &Client{
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", normalizeDomain(shopDomain), apiVersion),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// NewClientFromConfig builds a client for the configured shop.
func NewClientFromConfig(cfg *config.Config, logger *logger.Logger) (*Client, error) {
	if !cfg.ShopifyConfigured() {
		return nil, ErrNotConfigured
	}
	return NewClient(cfg.ShopifyShopDomain, cfg.ShopifyAccessToken, cfg.ShopifyAPIVersion, logger), nil
}

// WithBaseURL points the client at another Admin API root, e.g. a test server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// List fetches up to limit remote entities of the given kind.
func (c *Client) List(ctx context.Context, kind models.EntityKind, limit int) ([]RemoteEntity, error) {
	limit = clampLimit(limit)
	query := map[string]string{"limit": strconv.Itoa(limit)}

	switch kind {
	case models.KindProduct:
		return c.getList(ctx, "products.json", query, "products")
	case models.KindOrder:
		query["status"] = "any"
		return c.getList(ctx, "orders.json", query, "orders")
	case models.KindCollection:
		return c.listCollections(ctx, query, limit)
	case models.KindPromotion:
		rules, err := c.getList(ctx, "price_rules.json", query, "price_rules")
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			c.attachDiscountCodes(ctx, rule)
		}
		return rules, nil
	}
	return nil, fmt.Errorf("unsupported entity kind %q", kind)
}

// Get fetches one remote entity by its numeric or composite id.
func (c *Client) Get(ctx context.Context, kind models.EntityKind, id string) (RemoteEntity, error) {
	remoteID, err := ExtractRemoteID(id)
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.KindProduct:
		return c.getOne(ctx, "products/"+remoteID+".json", "product")
	case models.KindOrder:
		return c.getOne(ctx, "orders/"+remoteID+".json", "order")
	case models.KindCollection:
		return c.getOne(ctx, "collections/"+remoteID+".json", "collection")
	case models.KindPromotion:
		rule, err := c.getOne(ctx, "price_rules/"+remoteID+".json", "price_rule")
		if err != nil {
			return nil, err
		}
		c.attachDiscountCodes(ctx, rule)
		return rule, nil
	}
	return nil, fmt.Errorf("unsupported entity kind %q", kind)
}

// GetShopInfo fetches shop information
func (c *Client) GetShopInfo(ctx context.Context) (*Shop, error) {
	var shopResp struct {
		Shop Shop `json:"shop"`
	}
	if err := c.get(ctx, "shop.json", nil, &shopResp); err != nil {
		return nil, err
	}
	return &shopResp.Shop, nil
}

// listCollections merges custom and smart collections, tagging each with its
// type since the REST payloads do not carry it. When both types exceed the
// limit, each keeps at least half of it.
func (c *Client) listCollections(ctx context.Context, query map[string]string, limit int) ([]RemoteEntity, error) {
	custom, err := c.getList(ctx, "custom_collections.json", query, "custom_collections")
	if err != nil {
		return nil, err
	}
	smart, err := c.getList(ctx, "smart_collections.json", query, "smart_collections")
	if err != nil {
		return nil, err
	}

	customShare, smartShare := splitLimit(limit, len(custom), len(smart))
	collections := make([]RemoteEntity, 0, customShare+smartShare)
	for _, col := range custom[:customShare] {
		col["collection_type"] = string(models.CollectionTypeCustom)
		collections = append(collections, col)
	}
	for _, col := range smart[:smartShare] {
		col["collection_type"] = string(models.CollectionTypeSmart)
		collections = append(collections, col)
	}
	return collections, nil
}

// splitLimit shares limit between two lists. A list shorter than its half
// leaves the rest to the other one.
func splitLimit(limit, first, second int) (int, int) {
	firstShare := limit - min(second, limit/2)
	firstShare = min(firstShare, first)
	return firstShare, min(second, limit-firstShare)
}

// attachDiscountCodes enriches a price rule with its discount codes. A failure
// leaves the rule without codes.
func (c *Client) attachDiscountCodes(ctx context.Context, rule RemoteEntity) {
	id, err := ExtractRemoteID(rule["id"])
	if err != nil {
		return
	}
	codes, err := c.getList(ctx, "price_rules/"+id+"/discount_codes.json", nil, "discount_codes")
	if err != nil {
		c.logger.Debug("Failed to fetch discount codes for price rule %s: %v", id, err)
		return
	}
	list := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		list = append(list, map[string]interface{}(code))
	}
	rule["discount_codes"] = list
}

func (c *Client) getList(ctx context.Context, path string, query map[string]string, envelope string) ([]RemoteEntity, error) {
	var resp map[string][]RemoteEntity
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return resp[envelope], nil
}

func (c *Client) getOne(ctx context.Context, path, envelope string) (RemoteEntity, error) {
	var resp map[string]RemoteEntity
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	entity, ok := resp[envelope]
	if !ok || entity == nil {
		return nil, fmt.Errorf("missing %q in response", envelope)
	}
	return entity, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Add authentication header
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if len(query) > 0 {
		q := req.URL.Query()
		for key, value := range query {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// normalizeDomain accepts "granito", "granito.myshopify.com" or a full URL.
func normalizeDomain(shopDomain string) string {
	domain := strings.TrimSpace(shopDomain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimRight(domain, "/")
	if !strings.Contains(domain, ".") {
		domain += ".myshopify.com"
	}
	return domain
}
