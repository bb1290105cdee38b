package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

// ProductsStore porte le keyspace products : catalogue, variantes et
// mouvements de stock.
type ProductsStore struct {
	session *gocql.Session
}

func NewProductsStore(session *gocql.Session) *ProductsStore {
	return &ProductsStore{session: session}
}

func (s *ProductsStore) FindProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	err := s.session.Query(`
		SELECT product_id, name, description, price, stock, low_stock_threshold, sku,
		       category_id, image_urls, tags, is_active, has_variants, created_at, updated_at
		FROM products WHERE product_id = ?`, id).WithContext(ctx).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold, &p.SKU,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", id, err)
	}
	return &p, nil
}

func (s *ProductsStore) FindVariant(ctx context.Context, productID gocql.UUID, variantID string) (*models.ProductVariant, error) {
	vid, err := gocql.ParseUUID(variantID)
	if err != nil {
		return nil, fmt.Errorf("variant_id invalide %q: %w", variantID, err)
	}
	var v models.ProductVariant
	err = s.session.Query(`
		SELECT variant_id, product_id, name, sku, price, stock, is_active
		FROM product_variants WHERE product_id = ? AND variant_id = ?`, productID, vid).
		WithContext(ctx).Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.Stock, &v.IsActive)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture variante %s/%s: %w", productID, variantID, err)
	}
	return &v, nil
}

// RestoreProductStock ré-incrémente le stock d'un produit simple et trace le
// mouvement. Lecture-modification-écriture : la sérialisation des transitions
// par commande garantit qu'on ne restitue pas deux fois.
func (s *ProductsStore) RestoreProductStock(ctx context.Context, productID gocql.UUID, qty int, reason string) error {
	var current int
	if err := s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&current); err != nil {
		if err == gocql.ErrNotFound {
			// produit supprimé depuis la commande : rien à restituer
			log.Printf("ℹ️ Produit %s introuvable, restitution ignorée (%s)", productID, reason)
			return nil
		}
		return fmt.Errorf("lecture stock produit %s: %w", productID, err)
	}

	next := current + qty
	if err := s.session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ?`,
		next, time.Now().UTC(), productID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture stock produit %s: %w", productID, err)
	}

	s.recordMovement(ctx, models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      models.StockMovementRestore,
		Quantity:  qty,
		PrevStock: current,
		NewStock:  next,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	log.Printf("📦 Stock produit %s: %d -> %d (%s)", productID, current, next, reason)
	return nil
}

// RestoreVariantStock fait la même chose au niveau variante ; le stock du
// produit parent n'est pas touché.
func (s *ProductsStore) RestoreVariantStock(ctx context.Context, productID gocql.UUID, variantID string, qty int, reason string) error {
	vid, err := gocql.ParseUUID(variantID)
	if err != nil {
		log.Printf("⚠️ variant_id illisible %q, restitution ignorée (%s)", variantID, reason)
		return nil
	}

	var current int
	if err := s.session.Query(`
		SELECT stock FROM product_variants WHERE product_id = ? AND variant_id = ?`,
		productID, vid).WithContext(ctx).Scan(&current); err != nil {
		if err == gocql.ErrNotFound {
			log.Printf("ℹ️ Variante %s/%s introuvable, restitution ignorée (%s)", productID, variantID, reason)
			return nil
		}
		return fmt.Errorf("lecture stock variante %s/%s: %w", productID, variantID, err)
	}

	next := current + qty
	if err := s.session.Query(`
		UPDATE product_variants SET stock = ? WHERE product_id = ? AND variant_id = ?`,
		next, productID, vid).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture stock variante %s/%s: %w", productID, variantID, err)
	}

	s.recordMovement(ctx, models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		VariantID: variantID,
		Type:      models.StockMovementRestore,
		Quantity:  qty,
		PrevStock: current,
		NewStock:  next,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	log.Printf("📦 Stock variante %s/%s: %d -> %d (%s)", productID, variantID, current, next, reason)
	return nil
}

// DecrementProductStock réserve du stock au checkout. Refuse de passer sous
// zéro.
func (s *ProductsStore) DecrementProductStock(ctx context.Context, productID gocql.UUID, qty int, reason string) error {
	var current int
	if err := s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&current); err != nil {
		return fmt.Errorf("lecture stock produit %s: %w", productID, err)
	}
	if current < qty {
		return fmt.Errorf("stock insuffisant pour %s: %d demandé, %d disponible", productID, qty, current)
	}

	next := current - qty
	if err := s.session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ?`,
		next, time.Now().UTC(), productID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture stock produit %s: %w", productID, err)
	}

	s.recordMovement(ctx, models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      models.StockMovementSale,
		Quantity:  -qty,
		PrevStock: current,
		NewStock:  next,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *ProductsStore) DecrementVariantStock(ctx context.Context, productID gocql.UUID, variantID string, qty int, reason string) error {
	vid, err := gocql.ParseUUID(variantID)
	if err != nil {
		return fmt.Errorf("variant_id invalide %q: %w", variantID, err)
	}

	var current int
	if err := s.session.Query(`
		SELECT stock FROM product_variants WHERE product_id = ? AND variant_id = ?`,
		productID, vid).WithContext(ctx).Scan(&current); err != nil {
		return fmt.Errorf("lecture stock variante %s/%s: %w", productID, variantID, err)
	}
	if current < qty {
		return fmt.Errorf("stock insuffisant pour la variante %s/%s: %d demandé, %d disponible", productID, variantID, qty, current)
	}

	next := current - qty
	if err := s.session.Query(`
		UPDATE product_variants SET stock = ? WHERE product_id = ? AND variant_id = ?`,
		next, productID, vid).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture stock variante %s/%s: %w", productID, variantID, err)
	}

	s.recordMovement(ctx, models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		VariantID: variantID,
		Type:      models.StockMovementSale,
		Quantity:  -qty,
		PrevStock: current,
		NewStock:  next,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// recordMovement est un audit best-effort : un échec ne remonte jamais.
func (s *ProductsStore) recordMovement(ctx context.Context, m models.StockMovement) {
	if err := s.session.Query(`
		INSERT INTO stock_movements (product_id, id, variant_id, type, quantity, prev_stock, new_stock, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ProductID, m.ID, m.VariantID, m.Type, m.Quantity, m.PrevStock, m.NewStock, m.Reason, m.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Trace mouvement de stock %s: %v", m.ProductID, err)
	}
}

// StockMovements retourne l'historique des mouvements d'un produit, du plus
// récent au plus ancien.
func (s *ProductsStore) StockMovements(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	iter := s.session.Query(`
		SELECT product_id, id, variant_id, type, quantity, prev_stock, new_stock, reason, created_at
		FROM stock_movements WHERE product_id = ? LIMIT ?`, productID, limit).WithContext(ctx).Iter()

	var list []models.StockMovement
	var m models.StockMovement
	for iter.Scan(&m.ProductID, &m.ID, &m.VariantID, &m.Type, &m.Quantity, &m.PrevStock, &m.NewStock, &m.Reason, &m.CreatedAt) {
		list = append(list, m)
		m = models.StockMovement{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("mouvements de %s: %w", productID, err)
	}
	return list, nil
}

// CreateProduct insère une fiche produit complète.
func (s *ProductsStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == (gocql.UUID{}) {
		p.ID = gocql.TimeUUID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.session.Query(`
		INSERT INTO products
			(product_id, name, description, price, stock, low_stock_threshold, sku,
			 category_id, image_urls, tags, is_active, has_variants, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.LowStockThreshold, p.SKU,
		p.CategoryID, p.ImageURLs, p.Tags, p.IsActive, p.HasVariants, p.CreatedAt, p.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("insertion produit %s: %w", p.SKU, err)
	}
	if p.Stock > 0 {
		s.recordMovement(ctx, models.StockMovement{
			ID:        gocql.TimeUUID(),
			ProductID: p.ID,
			Type:      models.StockMovementRestock,
			Quantity:  p.Stock,
			PrevStock: 0,
			NewStock:  p.Stock,
			Reason:    "stock initial",
			CreatedAt: now,
		})
	}
	return nil
}

// SetProductActive active ou retire un produit du catalogue.
func (s *ProductsStore) SetProductActive(ctx context.Context, id gocql.UUID, active bool) error {
	p, err := s.FindProduct(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("produit %s introuvable", id)
	}
	return s.session.Query(`
		UPDATE products SET is_active = ?, updated_at = ? WHERE product_id = ?`,
		active, time.Now().UTC(), id).WithContext(ctx).Exec()
}

// AdjustStock applique un delta manuel (réassort positif, correction négative)
// et trace le mouvement correspondant.
func (s *ProductsStore) AdjustStock(ctx context.Context, productID gocql.UUID, delta int, reason string) (int, error) {
	var current int
	if err := s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&current); err != nil {
		if err == gocql.ErrNotFound {
			return 0, fmt.Errorf("produit %s introuvable", productID)
		}
		return 0, fmt.Errorf("lecture stock %s: %w", productID, err)
	}

	next := current + delta
	if next < 0 {
		return current, fmt.Errorf("stock résultant négatif (%d%+d)", current, delta)
	}
	if err := s.session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ?`,
		next, time.Now().UTC(), productID).WithContext(ctx).Exec(); err != nil {
		return current, fmt.Errorf("écriture stock %s: %w", productID, err)
	}

	movementType := models.StockMovementRestock
	if delta < 0 {
		movementType = models.StockMovementAdjustment
	}
	s.recordMovement(ctx, models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      movementType,
		Quantity:  delta,
		PrevStock: current,
		NewStock:  next,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	return next, nil
}

// ListProducts retourne le catalogue actif pour la boutique.
func (s *ProductsStore) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	iter := s.session.Query(`
		SELECT product_id, name, description, price, stock, low_stock_threshold, sku,
		       category_id, image_urls, tags, is_active, has_variants, created_at, updated_at
		FROM products LIMIT ?`, limit).WithContext(ctx).Iter()

	var list []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold, &p.SKU,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt) {
		if p.IsActive {
			list = append(list, p)
		}
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("listing produits: %w", err)
	}
	return list, nil
}
