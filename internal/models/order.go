package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Order struct {
	ID                string         `json:"id" gorm:"type:uuid;primaryKey"`
	ShopifyID         string         `json:"shopify_id" gorm:"uniqueIndex;not null"`
	Name              string         `json:"name" gorm:"not null"`
	OrderNumber       int            `json:"order_number"`
	Email             string         `json:"email"`
	CustomerID        string         `json:"customer_id"`
	CustomerName      string         `json:"customer_name"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	Currency          string         `json:"currency"`
	TotalPrice        float64        `json:"total_price" gorm:"type:decimal(12,2)"`
	SubtotalPrice     float64        `json:"subtotal_price" gorm:"type:decimal(12,2)"`
	TotalTax          float64        `json:"total_tax" gorm:"type:decimal(12,2)"`
	TotalDiscounts    float64        `json:"total_discounts" gorm:"type:decimal(12,2)"`
	LineItems         datatypes.JSON `json:"line_items"`
	ShippingAddress   datatypes.JSON `json:"shipping_address"`
	Note              string         `json:"note"`
	Tags              string         `json:"tags"`
	ProcessedAt       *time.Time     `json:"processed_at"`
	CancelledAt       *time.Time     `json:"cancelled_at"`
	SyncStatus        string         `json:"sync_status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Order) TableName() string {
	return "pedidos"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}
