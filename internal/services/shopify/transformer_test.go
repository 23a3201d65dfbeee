package shopify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"granito/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func decode(t *testing.T, payload string) RemoteEntity {
	t.Helper()
	var entity RemoteEntity
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&entity))
	return entity
}

func TestExtractRemoteID(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want string
	}{
		{"composite path", "Product/987654321", "987654321"},
		{"graphql id", "gid://shopify/Product/1", "1"},
		{"graphql id with query", "gid://shopify/Product/42?title=x", "42"},
		{"numeric string", " 12345 ", "12345"},
		{"json number", json.Number("632910392"), "632910392"},
		{"float", float64(632910392), "632910392"},
		{"int", 5, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractRemoteID(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []interface{}{nil, "", "  ", "/", "?ref=x", true, "gid://shopify/Product/", "Product/", "gid://shopify/Order/7/", "Product/?ref=x"} {
		_, err := ExtractRemoteID(bad)
		assert.Error(t, err, "expected error for %#v", bad)
	}
}

func TestTransformProduct(t *testing.T) {
	tr := NewTransformer()

	row, err := tr.Transform(models.KindProduct, decode(t, `{
		"id": 632910392,
		"title": "Deck A",
		"body_html": "<p>Maple</p>",
		"vendor": "Granito",
		"product_type": "Decks",
		"handle": "deck-a",
		"status": "ACTIVE",
		"tags": "deck, maple",
		"image": {"src": "https://cdn/deck-a.png"},
		"variants": [
			{"price": "49.99", "compare_at_price": "59.99", "inventory_quantity": 3},
			{"price": "39.99", "inventory_quantity": 2}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "632910392", row.RemoteID())
	assert.Equal(t, "Deck A", row["title"])
	assert.Equal(t, "<p>Maple</p>", row["description"])
	assert.Equal(t, "active", row["status"])
	assert.Equal(t, true, row["published"])
	assert.Equal(t, "https://cdn/deck-a.png", row["featured_image"])
	assert.Equal(t, 49.99, row["price"])
	assert.Equal(t, 59.99, row["compare_at_price"])
	assert.Equal(t, 5, row["inventory"])
	assert.Equal(t, datatypes.JSON("[]"), row["images"])
	assert.Equal(t, models.SyncStatusSynced, row[models.ColumnSyncStatus])
}

func TestTransformProductDefaults(t *testing.T) {
	tr := NewTransformer()

	for _, payload := range []string{
		`{"id": "gid://shop/Product/2", "title": "Deck B", "variants": []}`,
		`{"id": "gid://shop/Product/2", "title": "Deck B"}`,
	} {
		row, err := tr.Transform(models.KindProduct, decode(t, payload))
		require.NoError(t, err)
		assert.Equal(t, "2", row.RemoteID())
		assert.Equal(t, 0.0, row["price"])
		assert.Equal(t, 0, row["inventory"])
		assert.Equal(t, "", row["vendor"])
		assert.Equal(t, false, row["published"])
	}
}

func TestTransformProductGraphQLShapes(t *testing.T) {
	tr := NewTransformer()

	row, err := tr.Transform(models.KindProduct, decode(t, `{
		"id": "gid://shopify/Product/10",
		"title": "Wheels",
		"productType": "Wheels",
		"descriptionHtml": "54mm",
		"status": "DRAFT",
		"tags": ["urethane", "54mm"],
		"featuredImage": {"url": "https://cdn/wheels.png"},
		"totalInventory": 12,
		"variants": {"edges": [{"node": {"price": {"amount": "29.50"}}}]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "10", row.RemoteID())
	assert.Equal(t, "Wheels", row["product_type"])
	assert.Equal(t, "54mm", row["description"])
	assert.Equal(t, false, row["published"])
	assert.Equal(t, "urethane, 54mm", row["tags"])
	assert.Equal(t, "https://cdn/wheels.png", row["featured_image"])
	assert.Equal(t, 29.5, row["price"])
	assert.Equal(t, 12, row["inventory"])

	row, err = tr.Transform(models.KindProduct, decode(t, `{
		"id": "gid://shopify/Product/11",
		"variants": {"nodes": [{"price": 15}]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 15.0, row["price"])
}

func TestTransformFallback(t *testing.T) {
	tr := NewTransformer()

	row, err := tr.Transform(models.KindProduct, decode(t, `{"id": 77, "title": "Bad", "variants": [{"price": "abc"}]}`))
	require.Error(t, err)
	assert.Equal(t, "77", row.RemoteID())
	assert.Equal(t, "Producto 77", row["title"])
	assert.Equal(t, models.SyncStatusError, row[models.ColumnSyncStatus])

	row, err = tr.Transform(models.KindOrder, decode(t, `{"name": "#1001"}`))
	require.Error(t, err)
	assert.Equal(t, "", row.RemoteID())
	assert.Equal(t, "Pedido", row["name"])

	row, err = tr.Transform(models.KindCollection, "not an object")
	require.Error(t, err)
	assert.Equal(t, models.SyncStatusError, row[models.ColumnSyncStatus])
}

func TestTransformOrder(t *testing.T) {
	tr := NewTransformer()

	row, err := tr.Transform(models.KindOrder, decode(t, `{
		"id": 450789469,
		"name": "#1001",
		"order_number": 1001,
		"email": "rider@example.com",
		"financial_status": "PAID",
		"currency": "EUR",
		"total_price": "109.98",
		"subtotal_price": "99.98",
		"total_tax": "10.00",
		"customer": {"id": "gid://shopify/Customer/9", "first_name": "Ana", "last_name": "Ruiz"},
		"line_items": [{"title": "Deck A", "quantity": 2}],
		"processed_at": "2024-05-01T10:00:00+02:00"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "450789469", row.RemoteID())
	assert.Equal(t, 1001, row["order_number"])
	assert.Equal(t, "paid", row["financial_status"])
	assert.Equal(t, 109.98, row["total_price"])
	assert.Equal(t, 0.0, row["total_discounts"])
	assert.Equal(t, "9", row["customer_id"])
	assert.Equal(t, "Ana Ruiz", row["customer_name"])
	assert.JSONEq(t, `[{"title":"Deck A","quantity":2}]`, string(row["line_items"].(datatypes.JSON)))
	assert.Equal(t, datatypes.JSON("{}"), row["shipping_address"])

	processed := row["processed_at"].(*time.Time)
	require.NotNil(t, processed)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), *processed)
	assert.Nil(t, row["cancelled_at"])
}

func TestTransformCollection(t *testing.T) {
	tr := NewTransformer()

	row, err := tr.Transform(models.KindCollection, decode(t, `{
		"id": 841564295,
		"title": "Street",
		"rules": [{"column": "tag", "relation": "equals", "condition": "street"}],
		"published_at": "2024-01-01T00:00:00Z",
		"productsCount": {"count": 8}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "smart", row["collection_type"])
	assert.Equal(t, true, row["published"])
	assert.Equal(t, 8, row["products_count"])

	row, err = tr.Transform(models.KindCollection, decode(t, `{"id": 1, "title": "Sale", "collection_type": "custom"}`))
	require.NoError(t, err)
	assert.Equal(t, "custom", row["collection_type"])
	assert.Equal(t, false, row["published"])
}

func TestTransformPromotionStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTransformerWithClock(func() time.Time { return now })

	tests := []struct {
		name    string
		payload string
		want    models.PromotionStatus
	}{
		{"scheduled", `{"id": 1, "title": "Summer", "starts_at": "2024-07-01T00:00:00Z"}`, models.PromotionStatusScheduled},
		{"expired", `{"id": 2, "title": "Spring", "starts_at": "2024-03-01T00:00:00Z", "ends_at": "2024-04-01T00:00:00Z"}`, models.PromotionStatusExpired},
		{"active", `{"id": 3, "title": "Always", "starts_at": "2024-01-01T00:00:00Z"}`, models.PromotionStatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := tr.Transform(models.KindPromotion, decode(t, tt.payload))
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), row["status"])
		})
	}

	row, err := tr.Transform(models.KindPromotion, decode(t, `{
		"id": 507328175,
		"title": "SKATE10",
		"value_type": "percentage",
		"value": "-10.0",
		"discount_codes": [{"code": "SKATE10"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, 10.0, row["value"])
	assert.Equal(t, "SKATE10", row["code"])
}

func TestColumnsIncludeSyncStatus(t *testing.T) {
	for _, kind := range models.Kinds {
		cols := Columns(kind)
		assert.Contains(t, cols, models.ColumnSyncStatus)
		assert.NotContains(t, cols, models.ColumnRemoteID)
	}
}
