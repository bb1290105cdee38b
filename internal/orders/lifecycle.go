package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/payment/iyzico"
)

var (
	ErrOrderNotFound        = errors.New("commande introuvable")
	ErrInvalidStatus        = errors.New("statut de commande invalide")
	ErrInvalidPaymentStatus = errors.New("statut de paiement invalide")
	// ErrTransitionConflict signale qu'une autre transition est en cours sur la
	// même commande (verrou tenu ou version LWT dépassée).
	ErrTransitionConflict = errors.New("transition concurrente sur la commande")
)

// Store couvre les lectures/écritures du keyspace orders nécessaires au
// contrôleur de cycle de vie.
type Store interface {
	FindOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)
	// UpdateOrder persiste les champs de la commande avec un CAS sur la
	// version (retourne ErrTransitionConflict si la version a bougé).
	UpdateOrder(ctx context.Context, o *models.Order, expectedVersion int64) error
	AppendHistory(ctx context.Context, entry models.StatusHistoryEntry) error
	DeleteOrder(ctx context.Context, o *models.Order) error
	RecordGatewayAttempt(ctx context.Context, a models.GatewayAttempt) error
	UserEmail(ctx context.Context, userID string) (string, error)
}

// StockStore restitue l'inventaire réservé par une commande.
type StockStore interface {
	RestoreProductStock(ctx context.Context, productID gocql.UUID, qty int, reason string) error
	RestoreVariantStock(ctx context.Context, productID gocql.UUID, variantID string, qty int, reason string) error
}

// Gateway est le sous-ensemble du client iyzico utilisé par la réconciliation.
type Gateway interface {
	Cancel(ctx context.Context, req iyzico.CancelRequest) (*iyzico.Result, error)
	Refund(ctx context.Context, req iyzico.RefundRequest) (*iyzico.Result, error)
}

// Notifier pousse les notifications client dans l'outbox : jamais bloquant
// pour la transition, les erreurs sont seulement loggées.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, o *models.Order, recipient string) error
	PaymentConfirmed(ctx context.Context, o *models.Order, recipient string) error
}

// Locker sérialise les transitions concurrentes sur une même commande.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Controller applique un changement de statut et/ou de statut de paiement à
// une commande en gardant cohérents horodatages, journal, inventaire, état
// passerelle et notifications.
type Controller struct {
	store          Store
	stock          StockStore
	gateway        Gateway
	gatewayEnabled bool
	notifier       Notifier
	locks          Locker
	now            func() time.Time
}

func NewController(store Store, stock StockStore, gateway Gateway, gatewayEnabled bool, notifier Notifier, locks Locker) *Controller {
	return &Controller{
		store:          store,
		stock:          stock,
		gateway:        gateway,
		gatewayEnabled: gatewayEnabled,
		notifier:       notifier,
		locks:          locks,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// TransitionRequest : tout champ nil est laissé inchangé. Un pointeur vers la
// chaîne vide écrase bien le champ (l'appelant doit omettre la clé pour ne
// pas toucher).
type TransitionRequest struct {
	Status         *string
	PaymentStatus  *string
	TrackingNumber *string
	CarrierName    *string
	AdminNote      *string
	ClientIP       string
}

type GatewayOutcome struct {
	Attempted     bool     `json:"attempted"`
	Operation     string   `json:"operation,omitempty"` // "cancel" ou "refund"
	Succeeded     bool     `json:"succeeded"`
	SkippedReason string   `json:"skipped_reason,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

type TransitionResult struct {
	Order              *models.Order   `json:"order"`
	StatusLabel        string          `json:"status_label"`
	PaymentStatusLabel string          `json:"payment_status_label"`
	StatusChanged      bool            `json:"status_changed"`
	StockRestored      bool            `json:"stock_restored"`
	Gateway            *GatewayOutcome `json:"gateway,omitempty"`
}

const lockTTL = 30 * time.Second

// Transition applique la procédure complète décrite par le flux admin :
// horodatages + backfill, journal append-only, restitution du stock à la
// première annulation/remboursement, réconciliation passerelle best-effort,
// persistance CAS, notifications via l'outbox.
func (c *Controller) Transition(ctx context.Context, orderID gocql.UUID, req TransitionRequest) (*TransitionResult, error) {
	if req.Status != nil && !IsValidStatus(*req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.PaymentStatus != nil && !IsValidPaymentStatus(*req.PaymentStatus) {
		return nil, ErrInvalidPaymentStatus
	}

	if c.locks != nil {
		release, err := c.locks.Acquire(ctx, "order_transition:"+orderID.String(), lockTTL)
		switch {
		case errors.Is(err, ErrTransitionConflict):
			return nil, ErrTransitionConflict
		case err != nil:
			// Redis indisponible : on continue, le CAS LWT reste le filet
			log.Printf("⚠️ Verrou transition indisponible pour %s: %v", orderID, err)
		default:
			defer release()
		}
	}

	order, err := c.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	res := &TransitionResult{}
	var history *models.StatusHistoryEntry

	statusChanged := req.Status != nil && *req.Status != order.Status
	if statusChanged {
		previous := order.Status
		order.Status = *req.Status
		stampStatusTimestamps(order, order.Status, now)

		entry := models.StatusHistoryEntry{
			ID:             gocql.TimeUUID(),
			OrderID:        order.ID,
			Status:         order.Status,
			PreviousStatus: previous,
			Date:           now,
		}
		if req.AdminNote != nil {
			entry.Note = *req.AdminNote
		}
		history = &entry

		// Première bascule vers CANCELLED/REFUNDED uniquement : le garde sur
		// le statut précédent rend la restitution de stock exactement-une-fois.
		if isTerminalReversal(order.Status) && !isTerminalReversal(previous) {
			c.restoreStock(ctx, order)
			res.StockRestored = true
			res.Gateway = c.reconcileGateway(ctx, order, req.ClientIP)
		}
	}

	becamePaid := false
	if req.PaymentStatus != nil && *req.PaymentStatus != order.PaymentStatus {
		becamePaid = *req.PaymentStatus == models.PaymentStatusPaid
		order.PaymentStatus = *req.PaymentStatus
		if becamePaid {
			order.PaidAt = &now
			if order.ConfirmedAt == nil {
				order.ConfirmedAt = &now
			}
		}
	}

	if req.TrackingNumber != nil {
		order.TrackingNumber = *req.TrackingNumber
	}
	if req.CarrierName != nil {
		order.CarrierName = *req.CarrierName
	}
	if req.AdminNote != nil {
		order.AdminNote = *req.AdminNote
	}

	order.UpdatedAt = now
	expectedVersion := order.Version
	order.Version++

	if err := c.store.UpdateOrder(ctx, order, expectedVersion); err != nil {
		return nil, err
	}
	if history != nil {
		if err := c.store.AppendHistory(ctx, *history); err != nil {
			// le journal est un audit, pas un prérequis de la transition
			log.Printf("⚠️ Écriture journal statut échouée pour %s: %v", order.OrderNumber, err)
		}
	}

	if statusChanged || becamePaid {
		recipient := c.customerEmail(ctx, order)
		if recipient == "" {
			log.Printf("⚠️ Aucun email client pour la commande %s, notification ignorée", order.OrderNumber)
		} else {
			if statusChanged {
				if err := c.notifier.OrderStatusChanged(ctx, order, recipient); err != nil {
					log.Printf("⚠️ Enqueue notification statut %s: %v", order.OrderNumber, err)
				}
			}
			if becamePaid {
				if err := c.notifier.PaymentConfirmed(ctx, order, recipient); err != nil {
					log.Printf("⚠️ Enqueue notification paiement %s: %v", order.OrderNumber, err)
				}
			}
		}
	}

	res.Order = order
	res.StatusChanged = statusChanged
	res.StatusLabel = StatusLabel(order.Status)
	res.PaymentStatusLabel = PaymentStatusLabel(order.PaymentStatus)

	log.Printf("✅ Commande %s mise à jour: statut=%s paiement=%s", order.OrderNumber, order.Status, order.PaymentStatus)
	return res, nil
}

// Delete supprime définitivement une commande (purge admin, sans appel
// passerelle). Le stock est restitué d'abord si la commande n'était pas déjà
// annulée/remboursée.
func (c *Controller) Delete(ctx context.Context, orderID gocql.UUID) error {
	if c.locks != nil {
		release, err := c.locks.Acquire(ctx, "order_transition:"+orderID.String(), lockTTL)
		switch {
		case errors.Is(err, ErrTransitionConflict):
			return ErrTransitionConflict
		case err != nil:
			log.Printf("⚠️ Verrou transition indisponible pour %s: %v", orderID, err)
		default:
			defer release()
		}
	}

	order, err := c.store.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if !isTerminalReversal(order.Status) {
		c.restoreStock(ctx, order)
	}

	if err := c.store.DeleteOrder(ctx, order); err != nil {
		return err
	}

	log.Printf("🗑️ Commande %s supprimée", order.OrderNumber)
	return nil
}

// restoreStock ré-incrémente le stock de chaque article : la variante si le
// snapshot en porte une, sinon le produit parent et jamais les deux. Une
// erreur sur un article n'interrompt pas la boucle.
func (c *Controller) restoreStock(ctx context.Context, order *models.Order) {
	reason := "restitution commande " + order.OrderNumber
	for _, item := range order.Items {
		if variantID := item.VariantID(); variantID != "" {
			if err := c.stock.RestoreVariantStock(ctx, item.ProductID, variantID, item.Quantity, reason); err != nil {
				log.Printf("❌ Restitution stock variante %s (commande %s): %v", variantID, order.OrderNumber, err)
			}
			continue
		}
		if err := c.stock.RestoreProductStock(ctx, item.ProductID, item.Quantity, reason); err != nil {
			log.Printf("❌ Restitution stock produit %s (commande %s): %v", item.ProductID, order.OrderNumber, err)
		}
	}
}

// reconcileGateway inverse les fonds côté iyzico. Politique assumée
// at-least-once : l'état local (statut, stock) fait foi et est committé quoi
// qu'il arrive ici ; les échecs sont loggés et tracés dans gateway_attempts
// pour une réconciliation opérationnelle hors bande.
func (c *Controller) reconcileGateway(ctx context.Context, order *models.Order, clientIP string) *GatewayOutcome {
	out := &GatewayOutcome{}

	if !c.gatewayEnabled || c.gateway == nil {
		out.SkippedReason = "passerelle désactivée"
		log.Printf("ℹ️ Passerelle désactivée, pas d'appel iyzico pour %s", order.OrderNumber)
		return out
	}
	if order.IyzicoPaymentID == "" {
		out.SkippedReason = "pas de paymentId iyzico"
		log.Printf("ℹ️ Commande %s sans paymentId iyzico, réconciliation ignorée", order.OrderNumber)
		return out
	}
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	out.Attempted = true

	if order.Status == models.OrderStatusCancelled {
		out.Operation = "cancel"
		result, err := c.gateway.Cancel(ctx, iyzico.CancelRequest{
			ConversationID: order.IyzicoConversationID,
			PaymentID:      order.IyzicoPaymentID,
			IP:             clientIP,
		})
		c.recordAttempt(ctx, order, "cancel", "", 0, result, err)

		switch {
		case err != nil:
			// Erreur de transport : on ne tente PAS le refund de repli, on ne
			// sait pas si le cancel a abouti côté iyzico. Réconciliation
			// manuelle via gateway_attempts.
			out.Errors = append(out.Errors, err.Error())
			log.Printf("❌ iyzico cancel %s: %v", order.OrderNumber, err)
			return out
		case result.Status == iyzico.StatusSuccess:
			order.PaymentStatus = models.PaymentStatusRefunded
			out.Succeeded = true
			log.Printf("💰 iyzico cancel réussi pour %s", order.OrderNumber)
			return out
		default:
			// Refus métier (typiquement paiement trop ancien pour un cancel) :
			// repli sur un refund par transaction.
			out.Errors = append(out.Errors, result.ErrorMessage)
			log.Printf("⚠️ iyzico cancel refusé pour %s (%s), repli sur refund", order.OrderNumber, result.ErrorMessage)
			c.refundTransactions(ctx, order, clientIP, out)
			return out
		}
	}

	// REFUNDED : refund direct par transaction, indépendant du cancel
	out.Operation = "refund"
	c.refundTransactions(ctx, order, clientIP, out)
	return out
}

func (c *Controller) refundTransactions(ctx context.Context, order *models.Order, clientIP string, out *GatewayOutcome) {
	for _, tx := range order.PaymentTransactions {
		price, err := NormalizeRefundPrice(tx.RecordedPrice(), order.Total)
		if err != nil {
			// transaction illisible : on passe à la suivante
			log.Printf("⚠️ Transaction %s de %s ignorée: %v", tx.PaymentTransactionID, order.OrderNumber, err)
			out.Errors = append(out.Errors, fmt.Sprintf("transaction %s: %v", tx.PaymentTransactionID, err))
			continue
		}

		result, err := c.gateway.Refund(ctx, iyzico.RefundRequest{
			ConversationID:       order.IyzicoConversationID,
			PaymentTransactionID: tx.PaymentTransactionID,
			Price:                price,
			IP:                   clientIP,
		})
		c.recordAttempt(ctx, order, "refund", tx.PaymentTransactionID, price, result, err)

		switch {
		case err != nil:
			out.Errors = append(out.Errors, err.Error())
			log.Printf("❌ iyzico refund %s tx %s: %v", order.OrderNumber, tx.PaymentTransactionID, err)
		case result.Status == iyzico.StatusSuccess:
			order.PaymentStatus = models.PaymentStatusRefunded
			out.Succeeded = true
			log.Printf("💰 iyzico refund réussi %s tx %s (%.2f)", order.OrderNumber, tx.PaymentTransactionID, price)
		default:
			out.Errors = append(out.Errors, result.ErrorMessage)
			log.Printf("⚠️ iyzico refund refusé %s tx %s: %s", order.OrderNumber, tx.PaymentTransactionID, result.ErrorMessage)
		}
	}
}

func (c *Controller) recordAttempt(ctx context.Context, order *models.Order, op, txID string, price float64, result *iyzico.Result, callErr error) {
	attempt := models.GatewayAttempt{
		OrderID:              order.ID,
		TargetStatus:         order.Status,
		Operation:            op,
		PaymentTransactionID: txID,
		Price:                price,
		AttemptedAt:          c.now(),
	}
	switch {
	case callErr != nil:
		attempt.ErrorMessage = callErr.Error()
	case result.Status == iyzico.StatusSuccess:
		attempt.Success = true
	default:
		attempt.ErrorMessage = result.ErrorMessage
	}
	if err := c.store.RecordGatewayAttempt(ctx, attempt); err != nil {
		log.Printf("⚠️ Trace tentative passerelle %s: %v", order.OrderNumber, err)
	}
}

// customerEmail résout le destinataire : email du compte utilisateur lié,
// sinon le snapshot d'email de facturation (commande invité).
func (c *Controller) customerEmail(ctx context.Context, order *models.Order) string {
	if order.UserID != "" {
		email, err := c.store.UserEmail(ctx, order.UserID)
		if err == nil && email != "" {
			return email
		}
		if err != nil {
			log.Printf("⚠️ Lecture email utilisateur %s: %v", order.UserID, err)
		}
	}
	return order.BillingEmail
}
