package models

import (
	"time"

	"github.com/gocql/gocql"
)

// ShippingRule est une règle de tarification configurée par l'admin.
// La première règle active dont la fourchette contient le sous-total
// du panier s'applique.
type ShippingRule struct {
	ID            gocql.UUID `json:"id"`
	Name          string     `json:"name"`
	CarrierName   string     `json:"carrier_name"`
	MinSubtotal   float64    `json:"min_subtotal"`
	MaxSubtotal   float64    `json:"max_subtotal"` // 0 = pas de plafond
	Cost          float64    `json:"cost"`
	EstimatedDays int        `json:"estimated_days"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ShippingQuote struct {
	Cost          float64 `json:"cost"`
	CarrierName   string  `json:"carrier_name"`
	EstimatedDays int     `json:"estimated_days"`
	FreeThreshold float64 `json:"free_threshold"`
	CartTotal     float64 `json:"cart_total"`
	IsFree        bool    `json:"is_free"`
}
