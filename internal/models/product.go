package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product mirrors a Shopify product. Variants, images and metafields are an
// opaque cache of the last fetched payload, not a queryable relation.
type Product struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	ShopifyID      string         `json:"shopify_id" gorm:"uniqueIndex;not null"`
	Title          string         `json:"title" gorm:"not null"`
	Description    string         `json:"description"`
	ProductType    string         `json:"product_type"`
	Vendor         string         `json:"vendor"`
	Handle         string         `json:"handle"`
	Status         string         `json:"status"`
	Published      bool           `json:"published"`
	Tags           string         `json:"tags"`
	FeaturedImage  string         `json:"featured_image"`
	Price          float64        `json:"price" gorm:"type:decimal(12,2)"`
	CompareAtPrice float64        `json:"compare_at_price" gorm:"type:decimal(12,2)"`
	Inventory      int            `json:"inventory"`
	Variants       datatypes.JSON `json:"variants"`
	Images         datatypes.JSON `json:"images"`
	Metafields     datatypes.JSON `json:"metafields"`
	SyncStatus     string         `json:"sync_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Product) TableName() string {
	return "productos"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
