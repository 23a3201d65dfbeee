package models

import (
	"fmt"
	"strings"
)

// EntityKind names one of the mirrored Shopify resources.
type EntityKind string

const (
	KindProduct    EntityKind = "product"
	KindOrder      EntityKind = "order"
	KindCollection EntityKind = "collection"
	KindPromotion  EntityKind = "promotion"
)

// Kinds lists every mirrored kind in sync order.
var Kinds = []EntityKind{KindProduct, KindOrder, KindCollection, KindPromotion}

// Row is a flat column -> value map ready to be written to a mirror table.
type Row map[string]interface{}

// RemoteID returns the shopify_id column of the row, or "".
func (r Row) RemoteID() string {
	id, _ := r[ColumnRemoteID].(string)
	return id
}

const (
	ColumnRemoteID   = "shopify_id"
	ColumnSyncStatus = "sync_status"

	SyncStatusSynced = "synced"
	SyncStatusError  = "error"
)

var kindAliases = map[string]EntityKind{
	"product":     KindProduct,
	"products":    KindProduct,
	"producto":    KindProduct,
	"productos":   KindProduct,
	"order":       KindOrder,
	"orders":      KindOrder,
	"pedido":      KindOrder,
	"pedidos":     KindOrder,
	"collection":  KindCollection,
	"collections": KindCollection,
	"coleccion":   KindCollection,
	"colecciones": KindCollection,
	"promotion":   KindPromotion,
	"promotions":  KindPromotion,
	"promocion":   KindPromotion,
	"promociones": KindPromotion,
	"price_rule":  KindPromotion,
	"price_rules": KindPromotion,
}

// ParseEntityKind accepts the English and Spanish singular/plural spellings
// used by the dashboard routes.
func ParseEntityKind(raw string) (EntityKind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
	return kind, nil
}

// Table returns the mirror table of the kind.
func (k EntityKind) Table() string {
	switch k {
	case KindProduct:
		return Product{}.TableName()
	case KindOrder:
		return Order{}.TableName()
	case KindCollection:
		return Collection{}.TableName()
	case KindPromotion:
		return Promotion{}.TableName()
	}
	return ""
}

// Label is the human name used in fallback titles and audit messages.
func (k EntityKind) Label() string {
	switch k {
	case KindProduct:
		return "Producto"
	case KindOrder:
		return "Pedido"
	case KindCollection:
		return "Colección"
	case KindPromotion:
		return "Promoción"
	}
	return string(k)
}

// NewRecord returns a pointer to an empty model of the kind.
func (k EntityKind) NewRecord() interface{} {
	switch k {
	case KindProduct:
		return &Product{}
	case KindOrder:
		return &Order{}
	case KindCollection:
		return &Collection{}
	case KindPromotion:
		return &Promotion{}
	}
	return nil
}

// NewRecords returns a pointer to an empty slice of models of the kind.
func (k EntityKind) NewRecords() interface{} {
	switch k {
	case KindProduct:
		return &[]Product{}
	case KindOrder:
		return &[]Order{}
	case KindCollection:
		return &[]Collection{}
	case KindPromotion:
		return &[]Promotion{}
	}
	return nil
}

// SearchColumns are matched by the local listing endpoints' search filter.
func (k EntityKind) SearchColumns() []string {
	switch k {
	case KindProduct:
		return []string{"title", "handle", "vendor"}
	case KindOrder:
		return []string{"name", "email", "customer_name"}
	case KindCollection:
		return []string{"title", "handle"}
	case KindPromotion:
		return []string{"title", "code"}
	}
	return nil
}

// StatusColumn is the column the listing endpoints' status filter applies to.
func (k EntityKind) StatusColumn() string {
	switch k {
	case KindOrder:
		return "financial_status"
	case KindCollection:
		return "collection_type"
	}
	return "status"
}

// All returns every model registered for migration.
func All() []interface{} {
	return []interface{}{
		&Product{},
		&Order{},
		&Collection{},
		&Promotion{},
		&SyncAuditRecord{},
	}
}
