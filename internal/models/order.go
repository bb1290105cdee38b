package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// Statuts du cycle de vie d'une commande
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusRefunded   = "REFUNDED"
)

// Statuts de paiement (axe indépendant du statut de commande)
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

type Order struct {
	ID                   gocql.UUID           `json:"id"`
	OrderNumber          string               `json:"order_number"`
	UserID               string               `json:"user_id,omitempty"` // vide pour une commande invité
	BillingEmail         string               `json:"billing_email"`
	CustomerName         string               `json:"customer_name,omitempty"`
	Status               string               `json:"status"`
	PaymentStatus        string               `json:"payment_status"`
	Total                float64              `json:"total"`
	Subtotal             float64              `json:"subtotal"`
	ShippingCost         float64              `json:"shipping_cost"`
	Discount             float64              `json:"discount"`
	CouponCode           string               `json:"coupon_code,omitempty"`
	TrackingNumber       string               `json:"tracking_number,omitempty"`
	CarrierName          string               `json:"carrier_name,omitempty"`
	AdminNote            string               `json:"admin_note,omitempty"`
	IyzicoPaymentID      string               `json:"iyzico_payment_id,omitempty"`
	IyzicoConversationID string               `json:"iyzico_conversation_id,omitempty"`
	PaymentTransactions  []PaymentTransaction `json:"iyzico_payment_transactions,omitempty"`
	ConfirmedAt          *time.Time           `json:"confirmed_at,omitempty"`
	PreparingAt          *time.Time           `json:"preparing_at,omitempty"`
	ShippedAt            *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt          *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time           `json:"cancelled_at,omitempty"`
	RefundedAt           *time.Time           `json:"refunded_at,omitempty"`
	PaidAt               *time.Time           `json:"paid_at,omitempty"`
	Items                []OrderItem          `json:"items"`
	Version              int64                `json:"-"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

type OrderItem struct {
	ProductID   gocql.UUID `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	Price       float64    `json:"price"`        // prix unitaire figé à la commande
	VariantInfo string     `json:"variant_info"` // snapshot JSON de la variante, vide si produit simple
}

// VariantID extrait l'identifiant de variante du snapshot JSON.
// Retourne "" si l'article ne porte pas de variante.
func (it OrderItem) VariantID() string {
	if strings.TrimSpace(it.VariantInfo) == "" {
		return ""
	}
	var snapshot struct {
		VariantID string `json:"variant_id"`
	}
	if err := json.Unmarshal([]byte(it.VariantInfo), &snapshot); err != nil {
		return ""
	}
	return snapshot.VariantID
}

// PaymentTransaction est une référence opaque vers une transaction iyzico,
// enregistrée à la création de la commande. Le montant peut arriver en string
// (virgule ou point) ou en nombre selon la source, d'où le RawMessage.
type PaymentTransaction struct {
	PaymentTransactionID string          `json:"paymentTransactionId"`
	PaidPrice            json.RawMessage `json:"paidPrice,omitempty"`
	Price                json.RawMessage `json:"price,omitempty"`
}

// RecordedPrice retourne le montant enregistré, paidPrice prioritaire.
func (t PaymentTransaction) RecordedPrice() json.RawMessage {
	if len(t.PaidPrice) > 0 {
		return t.PaidPrice
	}
	return t.Price
}

// StatusHistoryEntry est une ligne du journal des transitions (append-only).
type StatusHistoryEntry struct {
	ID             gocql.UUID `json:"id"`
	OrderID        gocql.UUID `json:"order_id"`
	Status         string     `json:"status"`
	PreviousStatus string     `json:"previous_status"`
	Note           string     `json:"note,omitempty"`
	Date           time.Time  `json:"date"`
}

// GatewayAttempt trace chaque appel cancel/refund vers iyzico, réussi ou non.
// Clé (order_id, target_status) pour qu'un job de réconciliation repère les
// tentatives déjà faites.
type GatewayAttempt struct {
	OrderID              gocql.UUID `json:"order_id"`
	TargetStatus         string     `json:"target_status"`
	Operation            string     `json:"operation"` // "cancel" ou "refund"
	PaymentTransactionID string     `json:"payment_transaction_id,omitempty"`
	Price                float64    `json:"price,omitempty"`
	Success              bool       `json:"success"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	AttemptedAt          time.Time  `json:"attempted_at"`
}
