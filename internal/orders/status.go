package orders

import (
	"time"

	"fusionmarkt_backend/internal/models"
)

var validStatuses = map[string]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
	models.OrderStatusCancelled:  true,
	models.OrderStatusRefunded:   true,
}

var validPaymentStatuses = map[string]bool{
	models.PaymentStatusPending:  true,
	models.PaymentStatusPaid:     true,
	models.PaymentStatusFailed:   true,
	models.PaymentStatusRefunded: true,
}

// Libellés affichés côté client/admin (constantes de présentation)
var statusLabels = map[string]string{
	models.OrderStatusPending:    "Beklemede",
	models.OrderStatusProcessing: "Hazırlanıyor",
	models.OrderStatusShipped:    "Kargoya Verildi",
	models.OrderStatusDelivered:  "Teslim Edildi",
	models.OrderStatusCancelled:  "İptal Edildi",
	models.OrderStatusRefunded:   "İade Edildi",
}

var paymentStatusLabels = map[string]string{
	models.PaymentStatusPending:  "Ödeme Bekleniyor",
	models.PaymentStatusPaid:     "Ödendi",
	models.PaymentStatusFailed:   "Ödeme Başarısız",
	models.PaymentStatusRefunded: "İade Edildi",
}

func IsValidStatus(s string) bool        { return validStatuses[s] }
func IsValidPaymentStatus(s string) bool { return validPaymentStatuses[s] }

func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

func PaymentStatusLabel(s string) string {
	if l, ok := paymentStatusLabels[s]; ok {
		return l
	}
	return s
}

// isTerminalReversal indique si un statut implique la restitution du stock.
func isTerminalReversal(s string) bool {
	return s == models.OrderStatusCancelled || s == models.OrderStatusRefunded
}

// stampStatusTimestamps pose l'horodatage du nouveau statut et remplit les
// horodatages antérieurs encore vides de la séquence
// PENDING < PROCESSING < SHIPPED < DELIVERED. Le reporting aval suppose une
// chaîne monotone même quand un opérateur saute des étapes. L'horodatage du
// statut cible est toujours réécrit (une re-transition écrase la valeur).
func stampStatusTimestamps(o *models.Order, newStatus string, now time.Time) {
	switch newStatus {
	case models.OrderStatusProcessing:
		o.PreparingAt = &now
	case models.OrderStatusShipped:
		o.ShippedAt = &now
		if o.PreparingAt == nil {
			o.PreparingAt = &now
		}
	case models.OrderStatusDelivered:
		o.DeliveredAt = &now
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
		if o.PreparingAt == nil {
			o.PreparingAt = &now
		}
	case models.OrderStatusCancelled:
		o.CancelledAt = &now
	case models.OrderStatusRefunded:
		o.RefundedAt = &now
	}
}
