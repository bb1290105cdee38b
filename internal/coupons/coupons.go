package coupons

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

var ErrCouponNotFound = errors.New("coupon introuvable")

// Types de coupon
const (
	TypePercentage   = "percentage"
	TypeFixed        = "fixed"
	TypeFreeShipping = "free_shipping"
)

// Store lit/écrit les coupons et leur trace d'utilisation.
type Store interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	UserUsageCount(ctx context.Context, couponID gocql.UUID, userID string) (int, error)
	RecordUsage(ctx context.Context, usage models.CouponUsage) error
	IncrementUsedCount(ctx context.Context, couponID gocql.UUID) error
}

// Engine valide un code et calcule la réduction.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Validate retourne toujours un CouponValidation renseigné : IsValid=false
// avec un message utilisateur plutôt qu'une erreur, sauf panne du store.
func (e *Engine) Validate(ctx context.Context, code, userID string, subtotal float64) (*models.CouponValidation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	invalid := func(msg string) *models.CouponValidation {
		return &models.CouponValidation{IsValid: false, ErrorMessage: msg, Code: code}
	}

	if code == "" {
		return invalid("Kupon kodu boş olamaz"), nil
	}

	coupon, err := e.store.FindByCode(ctx, code)
	if errors.Is(err, ErrCouponNotFound) {
		return invalid("Geçersiz kupon kodu"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture coupon %s: %w", code, err)
	}

	now := e.now()
	switch {
	case !coupon.IsActive:
		return invalid("Bu kupon artık geçerli değil"), nil
	case !coupon.StartsAt.IsZero() && now.Before(coupon.StartsAt):
		return invalid("Bu kupon henüz aktif değil"), nil
	case !coupon.ExpiresAt.IsZero() && now.After(coupon.ExpiresAt):
		return invalid("Bu kuponun süresi dolmuş"), nil
	case coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses:
		return invalid("Bu kupon kullanım limitine ulaştı"), nil
	case coupon.MinAmount > 0 && subtotal < coupon.MinAmount:
		return invalid(fmt.Sprintf("Bu kupon minimum %.2f TL sepet tutarı gerektirir", coupon.MinAmount)), nil
	}

	if coupon.MaxUsesPerUser > 0 && userID != "" {
		used, err := e.store.UserUsageCount(ctx, coupon.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("usages du coupon %s: %w", code, err)
		}
		if used >= coupon.MaxUsesPerUser {
			return invalid("Bu kuponu daha fazla kullanamazsınız"), nil
		}
	}

	v := &models.CouponValidation{IsValid: true, Code: code, Type: coupon.Type}
	switch coupon.Type {
	case TypePercentage:
		discount := subtotal * coupon.Value / 100
		if coupon.MaxAmount != nil && discount > *coupon.MaxAmount {
			discount = *coupon.MaxAmount
		}
		v.Discount = round2(discount)
	case TypeFixed:
		discount := coupon.Value
		if discount > subtotal {
			discount = subtotal
		}
		v.Discount = round2(discount)
	case TypeFreeShipping:
		v.FreeShipping = true
	default:
		return invalid("Geçersiz kupon kodu"), nil
	}
	return v, nil
}

// Redeem trace l'utilisation au moment du checkout.
func (e *Engine) Redeem(ctx context.Context, code, userID string, orderID gocql.UUID) error {
	coupon, err := e.store.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return err
	}
	if err := e.store.RecordUsage(ctx, models.CouponUsage{
		ID:       gocql.TimeUUID(),
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  orderID,
		UsedAt:   e.now(),
	}); err != nil {
		return fmt.Errorf("trace d'utilisation du coupon %s: %w", code, err)
	}
	return e.store.IncrementUsedCount(ctx, coupon.ID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ScyllaStore persiste les coupons dans le keyspace orders.
type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

func (s *ScyllaStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	var maxAmount float64
	err := s.session.Query(`
		SELECT id, code, type, value, min_amount, max_amount, max_uses, used_count,
		       max_uses_per_user, starts_at, expires_at, is_active, created_by, created_at, updated_at
		FROM coupons WHERE code = ?`, code).WithContext(ctx).Scan(
		&c.ID, &c.Code, &c.Type, &c.Value, &c.MinAmount, &maxAmount, &c.MaxUses, &c.UsedCount,
		&c.MaxUsesPerUser, &c.StartsAt, &c.ExpiresAt, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if maxAmount > 0 {
		c.MaxAmount = &maxAmount
	}
	return &c, nil
}

func (s *ScyllaStore) UserUsageCount(ctx context.Context, couponID gocql.UUID, userID string) (int, error) {
	var count int
	if err := s.session.Query(`
		SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND user_id = ?`,
		couponID, userID).WithContext(ctx).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ScyllaStore) RecordUsage(ctx context.Context, usage models.CouponUsage) error {
	return s.session.Query(`
		INSERT INTO coupon_usages (coupon_id, user_id, id, order_id, used_at)
		VALUES (?, ?, ?, ?, ?)`,
		usage.CouponID, usage.UserID, usage.ID, usage.OrderID, usage.UsedAt).
		WithContext(ctx).Exec()
}

// IncrementUsedCount : lecture-modification-écriture, comme le stock. Un léger
// sous-comptage sous forte concurrence est acceptable, used_count n'est pas
// une donnée comptable.
func (s *ScyllaStore) IncrementUsedCount(ctx context.Context, couponID gocql.UUID) error {
	var current int
	if err := s.session.Query(`SELECT used_count FROM coupons_by_id WHERE id = ?`, couponID).
		WithContext(ctx).Scan(&current); err != nil {
		return err
	}
	return s.session.Query(`UPDATE coupons_by_id SET used_count = ?, updated_at = ? WHERE id = ?`,
		current+1, time.Now().UTC(), couponID).WithContext(ctx).Exec()
}

func (s *ScyllaStore) SaveCoupon(ctx context.Context, c *models.Coupon) error {
	if c.ID == (gocql.UUID{}) {
		c.ID = gocql.TimeUUID()
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = time.Now().UTC()
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))

	var maxAmount float64
	if c.MaxAmount != nil {
		maxAmount = *c.MaxAmount
	}

	// double écriture : lookup par code et par id
	if err := s.session.Query(`
		INSERT INTO coupons (code, id, type, value, min_amount, max_amount, max_uses, used_count,
			max_uses_per_user, starts_at, expires_at, is_active, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Code, c.ID, c.Type, c.Value, c.MinAmount, maxAmount, c.MaxUses, c.UsedCount,
		c.MaxUsesPerUser, c.StartsAt, c.ExpiresAt, c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture coupon %s: %w", c.Code, err)
	}
	if err := s.session.Query(`
		INSERT INTO coupons_by_id (id, code, type, value, min_amount, max_amount, max_uses, used_count,
			max_uses_per_user, starts_at, expires_at, is_active, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Type, c.Value, c.MinAmount, maxAmount, c.MaxUses, c.UsedCount,
		c.MaxUsesPerUser, c.StartsAt, c.ExpiresAt, c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture coupon %s: %w", c.Code, err)
	}
	return nil
}

func (s *ScyllaStore) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	iter := s.session.Query(`
		SELECT id, code, type, value, min_amount, max_amount, max_uses, used_count,
		       max_uses_per_user, starts_at, expires_at, is_active, created_by, created_at, updated_at
		FROM coupons`).WithContext(ctx).Iter()

	var list []models.Coupon
	var c models.Coupon
	var maxAmount float64
	for iter.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MinAmount, &maxAmount, &c.MaxUses, &c.UsedCount,
		&c.MaxUsesPerUser, &c.StartsAt, &c.ExpiresAt, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt) {
		if maxAmount > 0 {
			ma := maxAmount
			c.MaxAmount = &ma
		}
		list = append(list, c)
		c = models.Coupon{}
		maxAmount = 0
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ScyllaStore) DeleteCoupon(ctx context.Context, code string, id gocql.UUID) error {
	if err := s.session.Query(`DELETE FROM coupons WHERE code = ?`, code).WithContext(ctx).Exec(); err != nil {
		return err
	}
	return s.session.Query(`DELETE FROM coupons_by_id WHERE id = ?`, id).WithContext(ctx).Exec()
}
