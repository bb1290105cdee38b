package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/orders"
)

// OrdersStore porte toutes les lectures/écritures du keyspace orders, plus la
// résolution d'email côté keyspace users pour les notifications.
type OrdersStore struct {
	session *gocql.Session // keyspace orders
	users   *gocql.Session // keyspace users
}

func NewOrdersStore(session, users *gocql.Session) *OrdersStore {
	return &OrdersStore{session: session, users: users}
}

func tsPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func tsVal(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}

func (s *OrdersStore) FindOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	var (
		o           models.Order
		txJSON      string
		confirmedAt time.Time
		preparingAt time.Time
		shippedAt   time.Time
		deliveredAt time.Time
		cancelledAt time.Time
		refundedAt  time.Time
		paidAt      time.Time
	)

	err := s.session.Query(`
		SELECT id, order_number, user_id, billing_email, customer_name,
		       status, payment_status, total, subtotal, shipping_cost, discount,
		       coupon_code, tracking_number, carrier_name, admin_note,
		       iyzico_payment_id, iyzico_conversation_id, payment_transactions,
		       confirmed_at, preparing_at, shipped_at, delivered_at,
		       cancelled_at, refunded_at, paid_at,
		       version, created_at, updated_at
		FROM orders WHERE id = ?`, id).WithContext(ctx).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.BillingEmail, &o.CustomerName,
		&o.Status, &o.PaymentStatus, &o.Total, &o.Subtotal, &o.ShippingCost, &o.Discount,
		&o.CouponCode, &o.TrackingNumber, &o.CarrierName, &o.AdminNote,
		&o.IyzicoPaymentID, &o.IyzicoConversationID, &txJSON,
		&confirmedAt, &preparingAt, &shippedAt, &deliveredAt,
		&cancelledAt, &refundedAt, &paidAt,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande %s: %w", id, err)
	}

	o.ConfirmedAt = tsPtr(confirmedAt)
	o.PreparingAt = tsPtr(preparingAt)
	o.ShippedAt = tsPtr(shippedAt)
	o.DeliveredAt = tsPtr(deliveredAt)
	o.CancelledAt = tsPtr(cancelledAt)
	o.RefundedAt = tsPtr(refundedAt)
	o.PaidAt = tsPtr(paidAt)

	if txJSON != "" {
		if err := json.Unmarshal([]byte(txJSON), &o.PaymentTransactions); err != nil {
			// snapshot illisible : on continue sans transactions, la
			// réconciliation passerelle loggera le manque
			log.Printf("⚠️ Transactions iyzico illisibles pour %s: %v", o.OrderNumber, err)
		}
	}

	items, err := s.orderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (s *OrdersStore) orderItems(ctx context.Context, orderID gocql.UUID) ([]models.OrderItem, error) {
	iter := s.session.Query(`
		SELECT product_id, product_name, quantity, price, variant_info
		FROM order_items_by_order WHERE order_id = ?`, orderID).WithContext(ctx).Iter()

	var items []models.OrderItem
	var it models.OrderItem
	for iter.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.VariantInfo) {
		items = append(items, it)
		it = models.OrderItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture articles de %s: %w", orderID, err)
	}
	return items, nil
}

// UpdateOrder persiste les champs mutables avec un CAS sur la colonne version.
// Les articles sont immuables après création, ils ne sont pas réécrits ici.
func (s *OrdersStore) UpdateOrder(ctx context.Context, o *models.Order, expectedVersion int64) error {
	txJSON := ""
	if len(o.PaymentTransactions) > 0 {
		raw, err := json.Marshal(o.PaymentTransactions)
		if err != nil {
			return fmt.Errorf("sérialisation transactions de %s: %w", o.OrderNumber, err)
		}
		txJSON = string(raw)
	}

	var prevVersion int64
	applied, err := s.session.Query(`
		UPDATE orders SET
			status = ?, payment_status = ?,
			tracking_number = ?, carrier_name = ?, admin_note = ?,
			payment_transactions = ?,
			confirmed_at = ?, preparing_at = ?, shipped_at = ?, delivered_at = ?,
			cancelled_at = ?, refunded_at = ?, paid_at = ?,
			version = ?, updated_at = ?
		WHERE id = ? IF version = ?`,
		o.Status, o.PaymentStatus,
		o.TrackingNumber, o.CarrierName, o.AdminNote,
		txJSON,
		tsVal(o.ConfirmedAt), tsVal(o.PreparingAt), tsVal(o.ShippedAt), tsVal(o.DeliveredAt),
		tsVal(o.CancelledAt), tsVal(o.RefundedAt), tsVal(o.PaidAt),
		o.Version, o.UpdatedAt,
		o.ID, expectedVersion).WithContext(ctx).ScanCAS(&prevVersion)
	if err != nil {
		return fmt.Errorf("mise à jour commande %s: %w", o.OrderNumber, err)
	}
	if !applied {
		return orders.ErrTransitionConflict
	}

	// vue dénormalisée par utilisateur, best-effort
	if o.UserID != "" {
		if err := s.session.Query(`
			UPDATE orders_by_user SET status = ?, payment_status = ?, updated_at = ?
			WHERE user_id = ? AND created_at = ? AND order_id = ?`,
			o.Status, o.PaymentStatus, o.UpdatedAt,
			o.UserID, o.CreatedAt, o.ID).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Mise à jour orders_by_user pour %s: %v", o.OrderNumber, err)
		}
	}
	return nil
}

func (s *OrdersStore) AppendHistory(ctx context.Context, entry models.StatusHistoryEntry) error {
	return s.session.Query(`
		INSERT INTO order_status_history (order_id, id, status, previous_status, note, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.OrderID, entry.ID, entry.Status, entry.PreviousStatus, entry.Note, entry.Date).
		WithContext(ctx).Exec()
}

// History retourne le journal des transitions, du plus récent au plus ancien.
func (s *OrdersStore) History(ctx context.Context, orderID gocql.UUID) ([]models.StatusHistoryEntry, error) {
	iter := s.session.Query(`
		SELECT order_id, id, status, previous_status, note, date
		FROM order_status_history WHERE order_id = ?`, orderID).WithContext(ctx).Iter()

	var entries []models.StatusHistoryEntry
	var e models.StatusHistoryEntry
	for iter.Scan(&e.OrderID, &e.ID, &e.Status, &e.PreviousStatus, &e.Note, &e.Date) {
		entries = append(entries, e)
		e = models.StatusHistoryEntry{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture journal de %s: %w", orderID, err)
	}
	return entries, nil
}

// DeleteOrder purge la commande et ses lignes liées. Pas de batch conditionnel
// possible entre tables : suppressions séquentielles, la ligne principale en
// dernier pour qu'une purge interrompue reste reprenable.
func (s *OrdersStore) DeleteOrder(ctx context.Context, o *models.Order) error {
	if err := s.session.Query(`DELETE FROM order_items_by_order WHERE order_id = ?`, o.ID).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("suppression articles de %s: %w", o.OrderNumber, err)
	}
	if err := s.session.Query(`DELETE FROM order_status_history WHERE order_id = ?`, o.ID).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("suppression journal de %s: %w", o.OrderNumber, err)
	}
	if o.UserID != "" {
		if err := s.session.Query(`
			DELETE FROM orders_by_user WHERE user_id = ? AND created_at = ? AND order_id = ?`,
			o.UserID, o.CreatedAt, o.ID).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Suppression orders_by_user pour %s: %v", o.OrderNumber, err)
		}
	}
	return s.session.Query(`DELETE FROM orders WHERE id = ?`, o.ID).WithContext(ctx).Exec()
}

func (s *OrdersStore) RecordGatewayAttempt(ctx context.Context, a models.GatewayAttempt) error {
	return s.session.Query(`
		INSERT INTO gateway_attempts
			(order_id, target_status, attempted_at, operation, payment_transaction_id, price, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.OrderID, a.TargetStatus, a.AttemptedAt, a.Operation,
		a.PaymentTransactionID, a.Price, a.Success, a.ErrorMessage).
		WithContext(ctx).Exec()
}

func (s *OrdersStore) UserEmail(ctx context.Context, userID string) (string, error) {
	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		return "", fmt.Errorf("user_id invalide %q: %w", userID, err)
	}
	var email string
	if err := s.users.Query(`SELECT email FROM users WHERE id = ?`, uid).
		WithContext(ctx).Scan(&email); err != nil {
		if err == gocql.ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return email, nil
}

// CreateOrder insère une commande complète (checkout). La ligne principale,
// les articles et la vue par utilisateur sont écrits séquentiellement.
func (s *OrdersStore) CreateOrder(ctx context.Context, o *models.Order) error {
	txJSON := ""
	if len(o.PaymentTransactions) > 0 {
		raw, err := json.Marshal(o.PaymentTransactions)
		if err != nil {
			return fmt.Errorf("sérialisation transactions: %w", err)
		}
		txJSON = string(raw)
	}

	if err := s.session.Query(`
		INSERT INTO orders
			(id, order_number, user_id, billing_email, customer_name,
			 status, payment_status, total, subtotal, shipping_cost, discount,
			 coupon_code, tracking_number, carrier_name, admin_note,
			 iyzico_payment_id, iyzico_conversation_id, payment_transactions,
			 paid_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.UserID, o.BillingEmail, o.CustomerName,
		o.Status, o.PaymentStatus, o.Total, o.Subtotal, o.ShippingCost, o.Discount,
		o.CouponCode, o.TrackingNumber, o.CarrierName, o.AdminNote,
		o.IyzicoPaymentID, o.IyzicoConversationID, txJSON,
		tsVal(o.PaidAt), o.Version, o.CreatedAt, o.UpdatedAt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("insertion commande %s: %w", o.OrderNumber, err)
	}

	for _, it := range o.Items {
		if err := s.session.Query(`
			INSERT INTO order_items_by_order (order_id, product_id, product_name, quantity, price, variant_info)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.VariantInfo).
			WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("insertion article de %s: %w", o.OrderNumber, err)
		}
	}

	if o.UserID != "" {
		if err := s.session.Query(`
			INSERT INTO orders_by_user
				(user_id, created_at, order_id, order_number, status, payment_status, total, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			o.UserID, o.CreatedAt, o.ID, o.OrderNumber, o.Status, o.PaymentStatus, o.Total, o.UpdatedAt).
			WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Insertion orders_by_user pour %s: %v", o.OrderNumber, err)
		}
	}

	log.Printf("📦 Commande %s créée (%d articles)", o.OrderNumber, len(o.Items))
	return nil
}

// OrderSummary est la projection liste (admin et "mes commandes").
type OrderSummary struct {
	ID            gocql.UUID `json:"id"`
	OrderNumber   string     `json:"order_number"`
	UserID        string     `json:"user_id,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Total         float64    `json:"total"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ListOrders parcourt les commandes pour le back-office. Scylla ne pagine pas
// par date sans clé dédiée : le tri final est fait en mémoire côté handler.
func (s *OrdersStore) ListOrders(ctx context.Context, limit int) ([]OrderSummary, error) {
	iter := s.session.Query(`
		SELECT id, order_number, user_id, customer_name, status, payment_status, total, created_at, updated_at
		FROM orders LIMIT ?`, limit).WithContext(ctx).Iter()

	var list []OrderSummary
	var o OrderSummary
	for iter.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerName, &o.Status, &o.PaymentStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt) {
		list = append(list, o)
		o = OrderSummary{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("listing commandes: %w", err)
	}
	return list, nil
}

// OrdersByUser retourne les commandes d'un client, les plus récentes d'abord
// (ordre de clustering de orders_by_user).
func (s *OrdersStore) OrdersByUser(ctx context.Context, userID string, limit int) ([]OrderSummary, error) {
	iter := s.session.Query(`
		SELECT order_id, order_number, status, payment_status, total, created_at, updated_at
		FROM orders_by_user WHERE user_id = ? LIMIT ?`, userID, limit).WithContext(ctx).Iter()

	var list []OrderSummary
	var o OrderSummary
	for iter.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.PaymentStatus, &o.Total, &o.CreatedAt, &o.UpdatedAt) {
		o.UserID = userID
		list = append(list, o)
		o = OrderSummary{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("commandes de %s: %w", userID, err)
	}
	return list, nil
}
