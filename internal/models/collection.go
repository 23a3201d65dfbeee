package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Collection struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	ShopifyID      string         `json:"shopify_id" gorm:"uniqueIndex;not null"`
	Title          string         `json:"title" gorm:"not null"`
	Handle         string         `json:"handle"`
	Description    string         `json:"description"`
	CollectionType CollectionType `json:"collection_type"`
	SortOrder      string         `json:"sort_order"`
	Published      bool           `json:"published"`
	ImageURL       string         `json:"image_url"`
	ProductsCount  int            `json:"products_count"`
	Rules          datatypes.JSON `json:"rules"`
	PublishedAt    *time.Time     `json:"published_at"`
	SyncStatus     string         `json:"sync_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type CollectionType string

const (
	CollectionTypeCustom CollectionType = "custom"
	CollectionTypeSmart  CollectionType = "smart"
)

func (Collection) TableName() string {
	return "colecciones"
}

func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
