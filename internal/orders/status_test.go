package orders

import (
	"testing"
	"time"

	"fusionmarkt_backend/internal/models"
)

func TestStatusLabels(t *testing.T) {
	cases := map[string]string{
		models.OrderStatusPending:   "Beklemede",
		models.OrderStatusProcessing: "Hazırlanıyor",
		models.OrderStatusShipped:   "Kargoya Verildi",
		models.OrderStatusDelivered: "Teslim Edildi",
		models.OrderStatusCancelled: "İptal Edildi",
		models.OrderStatusRefunded:  "İade Edildi",
	}
	for status, want := range cases {
		if got := StatusLabel(status); got != want {
			t.Errorf("label de %s: %q attendu, obtenu %q", status, want, got)
		}
	}
	if got := StatusLabel("UNKNOWN"); got != "UNKNOWN" {
		t.Errorf("statut inconnu: repli sur la valeur brute attendu, obtenu %q", got)
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{models.OrderStatusPending, models.OrderStatusRefunded} {
		if !IsValidStatus(s) {
			t.Errorf("%s devrait être valide", s)
		}
	}
	for _, s := range []string{"", "pending", "SHIPPED ", "ARCHIVED"} {
		if IsValidStatus(s) {
			t.Errorf("%q ne devrait pas être valide", s)
		}
	}
}

func TestStampStatusTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	t.Run("SHIPPED pose preparing et shipped", func(t *testing.T) {
		o := &models.Order{Status: models.OrderStatusShipped}
		stampStatusTimestamps(o, models.OrderStatusShipped, now)
		if o.PreparingAt == nil || o.ShippedAt == nil {
			t.Fatal("preparing et shipped attendus")
		}
		if o.DeliveredAt != nil {
			t.Error("delivered ne doit pas être posé")
		}
	})

	t.Run("CANCELLED ne touche pas la chaîne de livraison", func(t *testing.T) {
		o := &models.Order{Status: models.OrderStatusCancelled}
		stampStatusTimestamps(o, models.OrderStatusCancelled, now)
		if o.CancelledAt == nil {
			t.Fatal("cancelledAt attendu")
		}
		if o.PreparingAt != nil || o.ShippedAt != nil {
			t.Error("pas de backfill de la chaîne de livraison pour une annulation")
		}
	})
}
