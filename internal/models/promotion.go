package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Promotion mirrors a Shopify price rule together with its discount codes.
type Promotion struct {
	ID               string          `json:"id" gorm:"type:uuid;primaryKey"`
	ShopifyID        string          `json:"shopify_id" gorm:"uniqueIndex;not null"`
	Title            string          `json:"title" gorm:"not null"`
	Code             string          `json:"code"`
	ValueType        string          `json:"value_type"`
	Value            float64         `json:"value" gorm:"type:decimal(12,2)"`
	TargetType       string          `json:"target_type"`
	AllocationMethod string          `json:"allocation_method"`
	UsageLimit       int             `json:"usage_limit"`
	OncePerCustomer  bool            `json:"once_per_customer"`
	StartsAt         *time.Time      `json:"starts_at"`
	EndsAt           *time.Time      `json:"ends_at"`
	Status           PromotionStatus `json:"status"`
	DiscountCodes    datatypes.JSON  `json:"discount_codes"`
	SyncStatus       string          `json:"sync_status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type PromotionStatus string

const (
	PromotionStatusScheduled PromotionStatus = "scheduled"
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusExpired   PromotionStatus = "expired"
)

func (Promotion) TableName() string {
	return "promociones"
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
