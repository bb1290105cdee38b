package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

type memStore struct {
	coupons map[string]*models.Coupon
	usages  map[string]int // couponID:userID -> count
	used    []models.CouponUsage
}

func newMemStore() *memStore {
	return &memStore{coupons: make(map[string]*models.Coupon), usages: make(map[string]int)}
}

func (s *memStore) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	if c, ok := s.coupons[code]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, ErrCouponNotFound
}

func (s *memStore) UserUsageCount(_ context.Context, couponID gocql.UUID, userID string) (int, error) {
	return s.usages[couponID.String()+":"+userID], nil
}

func (s *memStore) RecordUsage(_ context.Context, usage models.CouponUsage) error {
	s.used = append(s.used, usage)
	s.usages[usage.CouponID.String()+":"+usage.UserID]++
	return nil
}

func (s *memStore) IncrementUsedCount(_ context.Context, couponID gocql.UUID) error {
	for _, c := range s.coupons {
		if c.ID == couponID {
			c.UsedCount++
		}
	}
	return nil
}

func fixedEngine(store Store) *Engine {
	e := NewEngine(store)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestValidate(t *testing.T) {
	store := newMemStore()
	maxAmount := 100.0
	store.coupons["YAZ25"] = &models.Coupon{
		ID: gocql.TimeUUID(), Code: "YAZ25", Type: TypePercentage, Value: 25,
		MinAmount: 200, MaxAmount: &maxAmount, MaxUses: 100, MaxUsesPerUser: 1,
		StartsAt:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	store.coupons["SABIT50"] = &models.Coupon{
		ID: gocql.TimeUUID(), Code: "SABIT50", Type: TypeFixed, Value: 50, IsActive: true,
	}
	store.coupons["KARGO"] = &models.Coupon{
		ID: gocql.TimeUUID(), Code: "KARGO", Type: TypeFreeShipping, IsActive: true,
	}
	engine := fixedEngine(store)

	t.Run("pourcentage", func(t *testing.T) {
		v, err := engine.Validate(context.Background(), "yaz25", "user-1", 300)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if !v.IsValid || v.Discount != 75.00 {
			t.Errorf("25%% de 300 = 75 attendu, obtenu %+v", v)
		}
	})

	t.Run("pourcentage plafonné", func(t *testing.T) {
		v, err := engine.Validate(context.Background(), "YAZ25", "user-1", 800)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if v.Discount != 100.00 {
			t.Errorf("réduction plafonnée à 100 attendue, obtenu %v", v.Discount)
		}
	})

	t.Run("montant minimum", func(t *testing.T) {
		v, err := engine.Validate(context.Background(), "YAZ25", "user-1", 150)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if v.IsValid {
			t.Error("sous le minimum : invalide attendu")
		}
	})

	t.Run("fixe plafonné au sous-total", func(t *testing.T) {
		v, err := engine.Validate(context.Background(), "SABIT50", "", 30)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if v.Discount != 30 {
			t.Errorf("la réduction fixe ne doit pas dépasser le sous-total, obtenu %v", v.Discount)
		}
	})

	t.Run("livraison gratuite", func(t *testing.T) {
		v, err := engine.Validate(context.Background(), "KARGO", "", 100)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if !v.FreeShipping || v.Discount != 0 {
			t.Errorf("free_shipping attendu sans réduction, obtenu %+v", v)
		}
	})

	t.Run("code inconnu", func(t *testing.T) {
		v, err := engine.Validate(context.Background(), "YOK", "", 100)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if v.IsValid || v.ErrorMessage == "" {
			t.Errorf("invalide avec message attendu, obtenu %+v", v)
		}
	})

	t.Run("expiré", func(t *testing.T) {
		store.coupons["ESKI"] = &models.Coupon{
			ID: gocql.TimeUUID(), Code: "ESKI", Type: TypeFixed, Value: 10, IsActive: true,
			ExpiresAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		v, _ := engine.Validate(context.Background(), "ESKI", "", 100)
		if v.IsValid {
			t.Error("coupon expiré : invalide attendu")
		}
	})

	t.Run("pas encore actif", func(t *testing.T) {
		store.coupons["GELECEK"] = &models.Coupon{
			ID: gocql.TimeUUID(), Code: "GELECEK", Type: TypeFixed, Value: 10, IsActive: true,
			StartsAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		}
		v, _ := engine.Validate(context.Background(), "GELECEK", "", 100)
		if v.IsValid {
			t.Error("coupon pas encore actif : invalide attendu")
		}
	})

	t.Run("limite globale atteinte", func(t *testing.T) {
		store.coupons["DOLU"] = &models.Coupon{
			ID: gocql.TimeUUID(), Code: "DOLU", Type: TypeFixed, Value: 10, IsActive: true,
			MaxUses: 5, UsedCount: 5,
		}
		v, _ := engine.Validate(context.Background(), "DOLU", "", 100)
		if v.IsValid {
			t.Error("limite d'utilisation atteinte : invalide attendu")
		}
	})

	t.Run("limite par utilisateur", func(t *testing.T) {
		c := store.coupons["YAZ25"]
		store.usages[c.ID.String()+":user-2"] = 1
		v, _ := engine.Validate(context.Background(), "YAZ25", "user-2", 300)
		if v.IsValid {
			t.Error("limite par utilisateur atteinte : invalide attendu")
		}
	})
}

func TestRedeem(t *testing.T) {
	store := newMemStore()
	store.coupons["YAZ25"] = &models.Coupon{ID: gocql.TimeUUID(), Code: "YAZ25", Type: TypeFixed, Value: 25, IsActive: true}
	engine := fixedEngine(store)

	orderID := gocql.TimeUUID()
	if err := engine.Redeem(context.Background(), "yaz25", "user-1", orderID); err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if len(store.used) != 1 || store.used[0].OrderID != orderID {
		t.Errorf("trace d'utilisation inattendue: %+v", store.used)
	}
	if store.coupons["YAZ25"].UsedCount != 1 {
		t.Errorf("used_count doit être incrémenté, obtenu %d", store.coupons["YAZ25"].UsedCount)
	}
}
