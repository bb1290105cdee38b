package shipping

import (
	"context"
	"testing"

	"fusionmarkt_backend/internal/models"
)

type memRules struct {
	rules []models.ShippingRule
}

func (m *memRules) ActiveRules(context.Context) ([]models.ShippingRule, error) {
	return m.rules, nil
}

func TestQuote(t *testing.T) {
	rules := &memRules{rules: []models.ShippingRule{
		{Name: "Standard", CarrierName: "Yurtiçi", MinSubtotal: 0, MaxSubtotal: 200, Cost: 29.90, EstimatedDays: 3, IsActive: true},
		{Name: "Gros panier", CarrierName: "MNG", MinSubtotal: 200, MaxSubtotal: 0, Cost: 14.90, EstimatedDays: 3, IsActive: true},
	}}
	calc := NewCalculator(rules, 500, 39.90)

	t.Run("première fourchette", func(t *testing.T) {
		q, err := calc.Quote(context.Background(), 120)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if q.Cost != 29.90 || q.CarrierName != "Yurtiçi" {
			t.Errorf("devis inattendu: %+v", q)
		}
	})

	t.Run("fourchette supérieure sans plafond", func(t *testing.T) {
		q, err := calc.Quote(context.Background(), 350)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if q.Cost != 14.90 || q.CarrierName != "MNG" {
			t.Errorf("devis inattendu: %+v", q)
		}
	})

	t.Run("borne max exclusive", func(t *testing.T) {
		q, err := calc.Quote(context.Background(), 200)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if q.CarrierName != "MNG" {
			t.Errorf("à 200 exactement la règle 200+ s'applique, obtenu %+v", q)
		}
	})

	t.Run("seuil de gratuité", func(t *testing.T) {
		q, err := calc.Quote(context.Background(), 500)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if !q.IsFree || q.Cost != 0 {
			t.Errorf("livraison gratuite attendue à 500, obtenu %+v", q)
		}
	})

	t.Run("repli sur le tarif par défaut", func(t *testing.T) {
		calc := NewCalculator(&memRules{}, 500, 39.90)
		q, err := calc.Quote(context.Background(), 100)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if q.Cost != 39.90 {
			t.Errorf("tarif par défaut attendu, obtenu %+v", q)
		}
	})
}
