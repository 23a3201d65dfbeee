package shopify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"granito/internal/models"

	"gorm.io/datatypes"
)

// Transformer maps raw Shopify payloads onto flat mirror rows. Every kind is
// described by a declarative schema; one generic routine applies it.
type Transformer struct {
	now func() time.Time
}

func NewTransformer() *Transformer {
	return &Transformer{now: time.Now}
}

// NewTransformerWithClock is used where derived fields depend on "now"
// (promotion status) and the caller controls the clock.
func NewTransformerWithClock(now func() time.Time) *Transformer {
	return &Transformer{now: now}
}

type fieldType int

const (
	textField fieldType = iota
	numberField
	integerField
	boolField
	jsonField
	timeField
)

type deriveFunc func(e RemoteEntity, now time.Time) (interface{}, error)

type field struct {
	column string
	// keys are dotted paths tried in order; the first non-null value wins.
	keys []string
	typ  fieldType
	// def overrides the type default when every key is missing.
	def    interface{}
	lower  bool
	derive deriveFunc
}

type schema struct {
	nameColumn string
	fields     []field
}

var idKeys = []string{"id", "admin_graphql_api_id", "shopify_id"}

var schemas = map[models.EntityKind]schema{
	models.KindProduct: {
		nameColumn: "title",
		fields: []field{
			{column: "title", keys: []string{"title"}, typ: textField},
			{column: "description", keys: []string{"body_html", "descriptionHtml", "description"}, typ: textField},
			{column: "product_type", keys: []string{"product_type", "productType"}, typ: textField},
			{column: "vendor", keys: []string{"vendor"}, typ: textField},
			{column: "handle", keys: []string{"handle"}, typ: textField},
			{column: "status", keys: []string{"status"}, typ: textField, lower: true},
			{column: "published", typ: boolField, derive: productPublished},
			{column: "tags", keys: []string{"tags"}, typ: textField},
			{column: "featured_image", typ: textField, derive: productFeaturedImage},
			{column: "price", typ: numberField, derive: firstVariantNumber("price")},
			{column: "compare_at_price", typ: numberField, derive: firstVariantNumber("compare_at_price", "compareAtPrice")},
			{column: "inventory", typ: integerField, derive: productInventory},
			{column: "variants", keys: []string{"variants"}, typ: jsonField},
			{column: "images", keys: []string{"images", "media"}, typ: jsonField},
			{column: "metafields", keys: []string{"metafields"}, typ: jsonField},
		},
	},
	models.KindOrder: {
		nameColumn: "name",
		fields: []field{
			{column: "name", keys: []string{"name"}, typ: textField},
			{column: "order_number", keys: []string{"order_number", "orderNumber", "number"}, typ: integerField},
			{column: "email", keys: []string{"email", "contact_email"}, typ: textField},
			{column: "customer_id", typ: textField, derive: orderCustomerID},
			{column: "customer_name", typ: textField, derive: orderCustomerName},
			{column: "financial_status", keys: []string{"financial_status", "displayFinancialStatus"}, typ: textField, lower: true},
			{column: "fulfillment_status", keys: []string{"fulfillment_status", "displayFulfillmentStatus"}, typ: textField, lower: true},
			{column: "currency", keys: []string{"currency", "currencyCode"}, typ: textField},
			{column: "total_price", keys: []string{"total_price", "totalPriceSet.shopMoney.amount", "totalPrice"}, typ: numberField},
			{column: "subtotal_price", keys: []string{"subtotal_price", "subtotalPriceSet.shopMoney.amount", "subtotalPrice"}, typ: numberField},
			{column: "total_tax", keys: []string{"total_tax", "totalTaxSet.shopMoney.amount", "totalTax"}, typ: numberField},
			{column: "total_discounts", keys: []string{"total_discounts", "totalDiscountsSet.shopMoney.amount", "totalDiscounts"}, typ: numberField},
			{column: "line_items", keys: []string{"line_items", "lineItems"}, typ: jsonField},
			{column: "shipping_address", keys: []string{"shipping_address", "shippingAddress"}, typ: jsonField, def: datatypes.JSON("{}")},
			{column: "note", keys: []string{"note"}, typ: textField},
			{column: "tags", keys: []string{"tags"}, typ: textField},
			{column: "processed_at", keys: []string{"processed_at", "processedAt"}, typ: timeField},
			{column: "cancelled_at", keys: []string{"cancelled_at", "cancelledAt"}, typ: timeField},
		},
	},
	models.KindCollection: {
		nameColumn: "title",
		fields: []field{
			{column: "title", keys: []string{"title"}, typ: textField},
			{column: "handle", keys: []string{"handle"}, typ: textField},
			{column: "description", keys: []string{"body_html", "descriptionHtml", "description"}, typ: textField},
			{column: "collection_type", typ: textField, derive: collectionType},
			{column: "sort_order", keys: []string{"sort_order", "sortOrder"}, typ: textField, lower: true},
			{column: "published", typ: boolField, derive: collectionPublished},
			{column: "image_url", keys: []string{"image.src", "image.url"}, typ: textField},
			{column: "products_count", keys: []string{"products_count", "productsCount"}, typ: integerField},
			{column: "rules", keys: []string{"rules", "ruleSet"}, typ: jsonField},
			{column: "published_at", keys: []string{"published_at", "publishedAt"}, typ: timeField},
		},
	},
	models.KindPromotion: {
		nameColumn: "title",
		fields: []field{
			{column: "title", keys: []string{"title"}, typ: textField},
			{column: "code", typ: textField, derive: promotionCode},
			{column: "value_type", keys: []string{"value_type", "valueType"}, typ: textField, lower: true},
			{column: "value", typ: numberField, derive: promotionValue},
			{column: "target_type", keys: []string{"target_type", "targetType"}, typ: textField, lower: true},
			{column: "allocation_method", keys: []string{"allocation_method", "allocationMethod"}, typ: textField, lower: true},
			{column: "usage_limit", keys: []string{"usage_limit", "usageLimit"}, typ: integerField},
			{column: "once_per_customer", keys: []string{"once_per_customer", "appliesOncePerCustomer"}, typ: boolField},
			{column: "starts_at", keys: []string{"starts_at", "startsAt"}, typ: timeField},
			{column: "ends_at", keys: []string{"ends_at", "endsAt"}, typ: timeField},
			{column: "status", typ: textField, derive: promotionStatus},
			{column: "discount_codes", keys: []string{"discount_codes", "codes"}, typ: jsonField},
		},
	},
}

// Columns returns the mapped columns of a kind, excluding shopify_id.
func Columns(kind models.EntityKind) []string {
	sc := schemas[kind]
	cols := make([]string, 0, len(sc.fields)+1)
	for _, f := range sc.fields {
		cols = append(cols, f.column)
	}
	return append(cols, models.ColumnSyncStatus)
}

// Transform maps one raw payload. It never panics: on any failure it returns
// a fallback row (shopify_id, a placeholder name and sync_status "error")
// together with the error.
func (t *Transformer) Transform(kind models.EntityKind, raw interface{}) (row models.Row, err error) {
	entity, isObject := asEntity(raw)
	remoteID := ""
	if isObject {
		remoteID, _ = ExtractRemoteID(lookupFirst(entity, idKeys))
	}

	defer func() {
		if r := recover(); r != nil {
			row = fallbackRow(kind, remoteID)
			err = fmt.Errorf("mapping %s %s panicked: %v", kind, remoteID, r)
		}
	}()

	sc, ok := schemas[kind]
	if !ok {
		return fallbackRow(kind, remoteID), fmt.Errorf("no mapping schema for kind %q", kind)
	}
	if !isObject {
		return fallbackRow(kind, ""), fmt.Errorf("%s payload is not an object", kind)
	}
	if remoteID == "" {
		return fallbackRow(kind, ""), fmt.Errorf("%s payload has no usable id", kind)
	}

	now := t.now()
	row = models.Row{
		models.ColumnRemoteID:   remoteID,
		models.ColumnSyncStatus: models.SyncStatusSynced,
	}
	for _, f := range sc.fields {
		value, err := f.value(entity, now)
		if err != nil {
			return fallbackRow(kind, remoteID), fmt.Errorf("%s %s: field %s: %w", kind, remoteID, f.column, err)
		}
		row[f.column] = value
	}
	return row, nil
}

func (f field) value(e RemoteEntity, now time.Time) (interface{}, error) {
	if f.derive != nil {
		return f.derive(e, now)
	}
	raw := lookupFirst(e, f.keys)
	if raw == nil {
		return f.defaultValue(), nil
	}
	value, err := coerce(f.typ, raw)
	if err != nil {
		return nil, err
	}
	if s, ok := value.(string); ok && f.lower {
		value = strings.ToLower(s)
	}
	return value, nil
}

func (f field) defaultValue() interface{} {
	if f.def != nil {
		return f.def
	}
	return zeroValue(f.typ)
}

func zeroValue(typ fieldType) interface{} {
	switch typ {
	case numberField:
		return 0.0
	case integerField:
		return 0
	case boolField:
		return false
	case jsonField:
		return datatypes.JSON("[]")
	case timeField:
		return (*time.Time)(nil)
	}
	return ""
}

func fallbackRow(kind models.EntityKind, remoteID string) models.Row {
	nameColumn := "title"
	if sc, ok := schemas[kind]; ok {
		nameColumn = sc.nameColumn
	}
	name := kind.Label()
	if remoteID != "" {
		name += " " + remoteID
	}
	return models.Row{
		models.ColumnRemoteID:   remoteID,
		nameColumn:              name,
		models.ColumnSyncStatus: models.SyncStatusError,
	}
}

// ExtractRemoteID returns the canonical id: the trailing segment of composite
// ids such as "gid://shopify/Product/987654321" or "Product/987654321", or the
// bare number itself.
func ExtractRemoteID(raw interface{}) (string, error) {
	var id string
	switch v := raw.(type) {
	case nil:
		return "", errors.New("missing id")
	case string:
		id = v
	case json.Number:
		id = v.String()
	case float64:
		id = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		id = strconv.Itoa(v)
	case int64:
		id = strconv.FormatInt(v, 10)
	default:
		return "", fmt.Errorf("unsupported id type %T", raw)
	}

	id = strings.TrimSpace(id)
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	// A composite id ending in "/" has no id segment; never fall back to the
	// resource name before it.
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		id = id[i+1:]
	}
	if id == "" {
		return "", errors.New("empty id")
	}
	return id, nil
}

// Derived fields.

func productPublished(e RemoteEntity, _ time.Time) (interface{}, error) {
	status, err := textAt(e, "status")
	if err != nil {
		return nil, err
	}
	return strings.EqualFold(status, "active"), nil
}

func productFeaturedImage(e RemoteEntity, _ time.Time) (interface{}, error) {
	src, err := textAt(e, "image.src", "featuredImage.url", "featuredImage.src", "featured_image")
	if err != nil || src != "" {
		return src, err
	}
	images, err := listAt(e, "images")
	if err != nil || len(images) == 0 {
		return "", err
	}
	switch first := images[0].(type) {
	case string:
		return first, nil
	case map[string]interface{}:
		return textAt(first, "src", "url", "originalSrc")
	}
	return nil, errors.New("first image is neither a string nor an object")
}

func firstVariantNumber(keys ...string) deriveFunc {
	return func(e RemoteEntity, _ time.Time) (interface{}, error) {
		variant, err := firstVariant(e)
		if err != nil || variant == nil {
			return 0.0, err
		}
		raw := lookupFirst(variant, keys)
		if raw == nil {
			return 0.0, nil
		}
		return asNumber(raw)
	}
}

func productInventory(e RemoteEntity, _ time.Time) (interface{}, error) {
	if total := lookupFirst(e, []string{"total_inventory", "totalInventory"}); total != nil {
		n, err := asNumber(total)
		return int(n), err
	}
	variants, err := listAt(e, "variants")
	if err != nil {
		return nil, err
	}
	sum := 0
	for _, item := range variants {
		variant, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.New("variant is not an object")
		}
		qty := lookupFirst(variant, []string{"inventory_quantity", "inventoryQuantity"})
		if qty == nil {
			continue
		}
		n, err := asNumber(qty)
		if err != nil {
			return nil, err
		}
		sum += int(n)
	}
	return sum, nil
}

func orderCustomerID(e RemoteEntity, _ time.Time) (interface{}, error) {
	raw := lookupFirst(e, []string{"customer.id"})
	if raw == nil {
		return "", nil
	}
	return ExtractRemoteID(raw)
}

func orderCustomerName(e RemoteEntity, _ time.Time) (interface{}, error) {
	if name, err := textAt(e, "customer.displayName"); err != nil || name != "" {
		return name, err
	}
	first, err := textAt(e, "customer.first_name", "customer.firstName")
	if err != nil {
		return nil, err
	}
	last, err := textAt(e, "customer.last_name", "customer.lastName")
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(first + " " + last), nil
}

func collectionType(e RemoteEntity, _ time.Time) (interface{}, error) {
	explicit, err := textAt(e, "collection_type", "collectionType")
	if err != nil {
		return nil, err
	}
	if explicit != "" {
		return strings.ToLower(explicit), nil
	}
	if lookupFirst(e, []string{"rules", "ruleSet"}) != nil {
		return string(models.CollectionTypeSmart), nil
	}
	return string(models.CollectionTypeCustom), nil
}

func collectionPublished(e RemoteEntity, _ time.Time) (interface{}, error) {
	if raw := lookupFirst(e, []string{"published"}); raw != nil {
		return asBool(raw)
	}
	publishedAt, err := textAt(e, "published_at", "publishedAt")
	if err != nil {
		return nil, err
	}
	return publishedAt != "", nil
}

func promotionCode(e RemoteEntity, _ time.Time) (interface{}, error) {
	if code, err := textAt(e, "code"); err != nil || code != "" {
		return code, err
	}
	codes, err := listAt(e, "discount_codes", "codes")
	if err != nil || len(codes) == 0 {
		return "", err
	}
	first, ok := codes[0].(map[string]interface{})
	if !ok {
		return nil, errors.New("discount code is not an object")
	}
	return textAt(first, "code")
}

func promotionValue(e RemoteEntity, _ time.Time) (interface{}, error) {
	raw := lookupFirst(e, []string{"value"})
	if raw == nil {
		return 0.0, nil
	}
	n, err := asNumber(raw)
	if err != nil {
		return nil, err
	}
	return math.Abs(n), nil
}

func promotionStatus(e RemoteEntity, now time.Time) (interface{}, error) {
	startsAt, err := timeAt(e, "starts_at", "startsAt")
	if err != nil {
		return nil, err
	}
	endsAt, err := timeAt(e, "ends_at", "endsAt")
	if err != nil {
		return nil, err
	}
	switch {
	case startsAt != nil && now.Before(*startsAt):
		return string(models.PromotionStatusScheduled), nil
	case endsAt != nil && now.After(*endsAt):
		return string(models.PromotionStatusExpired), nil
	}
	return string(models.PromotionStatusActive), nil
}

// Lookup helpers.

func asEntity(raw interface{}) (RemoteEntity, bool) {
	switch v := raw.(type) {
	case RemoteEntity:
		return v, v != nil
	case map[string]interface{}:
		return RemoteEntity(v), v != nil
	}
	return nil, false
}

func lookupFirst(e map[string]interface{}, keys []string) interface{} {
	for _, key := range keys {
		if v := lookupPath(e, key); v != nil {
			return v
		}
	}
	return nil
}

func lookupPath(e map[string]interface{}, path string) interface{} {
	var current interface{} = e
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			if entity, isEntity := current.(RemoteEntity); isEntity {
				obj = entity
			} else {
				return nil
			}
		}
		current = obj[part]
		if current == nil {
			return nil
		}
	}
	return current
}

func textAt(e map[string]interface{}, keys ...string) (string, error) {
	raw := lookupFirst(e, keys)
	if raw == nil {
		return "", nil
	}
	return asText(raw)
}

func timeAt(e map[string]interface{}, keys ...string) (*time.Time, error) {
	raw := lookupFirst(e, keys)
	if raw == nil {
		return nil, nil
	}
	return asTime(raw)
}

// listAt normalizes plain arrays and GraphQL connections ({edges:[{node}]}
// or {nodes:[]}) into a slice.
func listAt(e map[string]interface{}, keys ...string) ([]interface{}, error) {
	raw := lookupFirst(e, keys)
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if nodes, ok := v["nodes"].([]interface{}); ok {
			return nodes, nil
		}
		if edges, ok := v["edges"].([]interface{}); ok {
			items := make([]interface{}, 0, len(edges))
			for _, edge := range edges {
				edgeObj, ok := edge.(map[string]interface{})
				if !ok {
					return nil, errors.New("connection edge is not an object")
				}
				items = append(items, edgeObj["node"])
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("expected a list, got %T", raw)
}

func firstVariant(e RemoteEntity) (map[string]interface{}, error) {
	variants, err := listAt(e, "variants")
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, nil
	}
	variant, ok := variants[0].(map[string]interface{})
	if !ok {
		return nil, errors.New("first variant is not an object")
	}
	return variant, nil
}

// Coercion.

func coerce(typ fieldType, raw interface{}) (interface{}, error) {
	switch typ {
	case numberField:
		return asNumber(raw)
	case integerField:
		n, err := asNumber(raw)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case boolField:
		return asBool(raw)
	case jsonField:
		return asJSON(raw)
	case timeField:
		return asTime(raw)
	}
	return asText(raw)
}

func asText(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []interface{}:
		// GraphQL returns tags as a list.
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := asText(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	}
	return "", fmt.Errorf("expected text, got %T", raw)
}

// asNumber accepts numbers, numeric strings and the {amount} / {count}
// objects GraphQL uses for money and counts.
func asNumber(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", v)
		}
		return n, nil
	case map[string]interface{}:
		for _, key := range []string{"amount", "count"} {
			if inner, ok := v[key]; ok && inner != nil {
				return asNumber(inner)
			}
		}
		if shopMoney, ok := v["shopMoney"].(map[string]interface{}); ok {
			return asNumber(shopMoney)
		}
	}
	return 0, fmt.Errorf("expected a number, got %T", raw)
}

func asBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("invalid flag %q", v)
		}
		return b, nil
	case float64, json.Number:
		n, err := asNumber(v)
		return n != 0, err
	}
	return false, fmt.Errorf("expected a flag, got %T", raw)
}

// asJSON keeps nested payloads verbatim. Strings that already hold JSON are
// stored as-is.
func asJSON(raw interface{}) (datatypes.JSON, error) {
	if s, ok := raw.(string); ok && json.Valid([]byte(s)) {
		return datatypes.JSON(s), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func asTime(raw interface{}) (*time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		t := v.UTC()
		return &t, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", v)
		}
		t = t.UTC()
		return &t, nil
	}
	return nil, fmt.Errorf("expected a timestamp, got %T", raw)
}
