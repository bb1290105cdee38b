package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

func TestRenderHTML(t *testing.T) {
	o := &models.Order{
		ID:            gocql.TimeUUID(),
		OrderNumber:   "FM-3001",
		CustomerName:  "Mehmet Kaya",
		BillingEmail:  "mehmet@example.com",
		PaymentStatus: models.PaymentStatusPaid,
		Subtotal:      500.00,
		Discount:      50.00,
		ShippingCost:  14.90,
		Total:         464.90,
		CreatedAt:     time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{ProductName: "Kablosuz Kulaklık", Quantity: 2, Price: 250.00},
		},
	}

	html, err := renderHTML(o, "https://fusionmarkt.example/siparis")
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}

	for _, want := range []string{
		"FM-3001",
		"Mehmet Kaya",
		"Kablosuz Kulaklık",
		"500.00 TL", // ligne article (2 x 250) et sous-total
		"464.90 TL",
		"Ödendi",
		"02/04/2025",
		"data:image/png;base64,",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("le HTML doit contenir %q", want)
		}
	}
}

func TestRenderHTML_NoDiscountRow(t *testing.T) {
	o := &models.Order{
		OrderNumber:  "FM-3002",
		Subtotal:     100,
		Total:        100,
		CreatedAt:    time.Now(),
		BillingEmail: "x@example.com",
	}
	html, err := renderHTML(o, "https://fusionmarkt.example/siparis")
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if strings.Contains(html, "İndirim") {
		t.Error("pas de ligne de réduction quand discount est nul")
	}
}
