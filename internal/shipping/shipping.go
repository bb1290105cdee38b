package shipping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

var ErrRuleNotFound = errors.New("règle de livraison introuvable")

// RuleStore lit/écrit les règles de tarification.
type RuleStore interface {
	ActiveRules(ctx context.Context) ([]models.ShippingRule, error)
}

// Calculator résout le coût de livraison d'un panier. freeThreshold est le
// seuil de gratuité global, appliqué avant les règles.
type Calculator struct {
	rules         RuleStore
	freeThreshold float64
	defaultCost   float64
}

func NewCalculator(rules RuleStore, freeThreshold, defaultCost float64) *Calculator {
	return &Calculator{rules: rules, freeThreshold: freeThreshold, defaultCost: defaultCost}
}

// Quote applique la première règle active dont la fourchette contient le
// sous-total (règles triées par min_subtotal croissant). Sans règle
// applicable, le tarif par défaut s'applique.
func (c *Calculator) Quote(ctx context.Context, subtotal float64) (*models.ShippingQuote, error) {
	quote := &models.ShippingQuote{
		CartTotal:     subtotal,
		FreeThreshold: c.freeThreshold,
	}

	if c.freeThreshold > 0 && subtotal >= c.freeThreshold {
		quote.IsFree = true
		quote.Cost = 0
		return quote, nil
	}

	rules, err := c.rules.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("lecture règles de livraison: %w", err)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].MinSubtotal < rules[j].MinSubtotal })

	for _, r := range rules {
		if subtotal < r.MinSubtotal {
			continue
		}
		if r.MaxSubtotal > 0 && subtotal >= r.MaxSubtotal {
			continue
		}
		quote.Cost = r.Cost
		quote.CarrierName = r.CarrierName
		quote.EstimatedDays = r.EstimatedDays
		quote.IsFree = r.Cost == 0
		return quote, nil
	}

	quote.Cost = c.defaultCost
	return quote, nil
}

// ScyllaRuleStore persiste les règles dans le keyspace orders.
type ScyllaRuleStore struct {
	session *gocql.Session
}

func NewScyllaRuleStore(session *gocql.Session) *ScyllaRuleStore {
	return &ScyllaRuleStore{session: session}
}

func (s *ScyllaRuleStore) ActiveRules(ctx context.Context) ([]models.ShippingRule, error) {
	iter := s.session.Query(`
		SELECT id, name, carrier_name, min_subtotal, max_subtotal, cost, estimated_days, is_active, created_at, updated_at
		FROM shipping_rules`).WithContext(ctx).Iter()

	var rules []models.ShippingRule
	var r models.ShippingRule
	for iter.Scan(&r.ID, &r.Name, &r.CarrierName, &r.MinSubtotal, &r.MaxSubtotal,
		&r.Cost, &r.EstimatedDays, &r.IsActive, &r.CreatedAt, &r.UpdatedAt) {
		if r.IsActive {
			rules = append(rules, r)
		}
		r = models.ShippingRule{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *ScyllaRuleStore) AllRules(ctx context.Context) ([]models.ShippingRule, error) {
	iter := s.session.Query(`
		SELECT id, name, carrier_name, min_subtotal, max_subtotal, cost, estimated_days, is_active, created_at, updated_at
		FROM shipping_rules`).WithContext(ctx).Iter()

	var rules []models.ShippingRule
	var r models.ShippingRule
	for iter.Scan(&r.ID, &r.Name, &r.CarrierName, &r.MinSubtotal, &r.MaxSubtotal,
		&r.Cost, &r.EstimatedDays, &r.IsActive, &r.CreatedAt, &r.UpdatedAt) {
		rules = append(rules, r)
		r = models.ShippingRule{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *ScyllaRuleStore) SaveRule(ctx context.Context, r *models.ShippingRule) error {
	if r.ID == (gocql.UUID{}) {
		r.ID = gocql.TimeUUID()
		r.CreatedAt = time.Now().UTC()
	}
	r.UpdatedAt = time.Now().UTC()
	return s.session.Query(`
		INSERT INTO shipping_rules (id, name, carrier_name, min_subtotal, max_subtotal, cost, estimated_days, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.CarrierName, r.MinSubtotal, r.MaxSubtotal,
		r.Cost, r.EstimatedDays, r.IsActive, r.CreatedAt, r.UpdatedAt).
		WithContext(ctx).Exec()
}

func (s *ScyllaRuleStore) DeleteRule(ctx context.Context, id gocql.UUID) error {
	return s.session.Query(`DELETE FROM shipping_rules WHERE id = ?`, id).WithContext(ctx).Exec()
}
