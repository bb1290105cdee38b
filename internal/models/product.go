package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID `json:"id" db:"product_id"`
	Name              string     `json:"name" db:"name"`
	Description       string     `json:"description" db:"description"`
	Price             float64    `json:"price" db:"price"`
	Stock             int        `json:"stock" db:"stock"`
	LowStockThreshold int        `json:"low_stock_threshold" db:"low_stock_threshold"`
	SKU               string     `json:"sku" db:"sku"`
	CategoryID        gocql.UUID `json:"category_id" db:"category_id"`
	ImageURLs         []string   `json:"image_urls" db:"image_urls"`
	Tags              []string   `json:"tags" db:"tags"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	HasVariants       bool       `json:"has_variants" db:"has_variants"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

type ProductVariant struct {
	ID        gocql.UUID `json:"id" db:"variant_id"`
	ProductID gocql.UUID `json:"product_id" db:"product_id"`
	Name      string     `json:"name" db:"name"` // ex: "Siyah / XL"
	SKU       string     `json:"sku" db:"sku"`
	Price     float64    `json:"price" db:"price"`
	Stock     int        `json:"stock" db:"stock"`
	IsActive  bool       `json:"is_active" db:"is_active"`
}

// Types de mouvement de stock
const (
	StockMovementRestock    = "restock"
	StockMovementAdjustment = "adjustment"
	StockMovementRestore    = "order_restore"
	StockMovementSale       = "order_placed"
)

// StockMovement journalise chaque variation de stock (restauration après
// annulation, réassort admin, ajustement).
type StockMovement struct {
	ID        gocql.UUID `json:"id"`
	ProductID gocql.UUID `json:"product_id"`
	VariantID string     `json:"variant_id,omitempty"`
	Type      string     `json:"type"` // "restock", "adjustment", "order_restore", "order_placed"
	Quantity  int        `json:"quantity"`
	PrevStock int        `json:"prev_stock"`
	NewStock  int        `json:"new_stock"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"created_at"`
}
