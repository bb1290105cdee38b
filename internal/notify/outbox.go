package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

// Statuts d'un message de l'outbox
const (
	MessagePending = "PENDING"
	MessageSent    = "SENT"
	MessageFailed  = "FAILED"
)

// Kinds de notification
const (
	KindOrderStatus      = "order_status"
	KindPaymentConfirmed = "payment_confirmed"
	KindServiceRequest   = "service_request"
)

const maxAttempts = 5

// Message est une notification en attente d'envoi. L'écriture dans l'outbox
// fait partie de la transition ; l'envoi effectif est fait par le Worker, ce
// qui évite de perdre des emails quand le SMTP tousse au mauvais moment.
type Message struct {
	ID          gocql.UUID `json:"id"`
	Kind        string     `json:"kind"`
	Recipient   string     `json:"recipient"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	OrderID     gocql.UUID `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	OrderStatus string     `json:"order_status"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// OutboxStore persiste les messages et leur progression.
type OutboxStore interface {
	Enqueue(ctx context.Context, m Message) error
	FetchPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id gocql.UUID) error
	MarkFailed(ctx context.Context, id gocql.UUID, attempts int, lastError string) error
}

// Sender envoie un message (SMTP en production).
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Publisher pousse l'événement métier vers le bus (Kafka en production).
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Outbox implémente orders.Notifier : chaque notification devient une ligne
// PENDING, consommée ensuite par le Worker.
type Outbox struct {
	store OutboxStore
}

func NewOutbox(store OutboxStore) *Outbox {
	return &Outbox{store: store}
}

func (o *Outbox) OrderStatusChanged(ctx context.Context, order *models.Order, recipient string) error {
	subject, body := statusChangedEmail(order)
	return o.store.Enqueue(ctx, Message{
		ID:          gocql.TimeUUID(),
		Kind:        KindOrderStatus,
		Recipient:   recipient,
		Subject:     subject,
		Body:        body,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OrderStatus: order.Status,
		Status:      MessagePending,
		CreatedAt:   time.Now().UTC(),
	})
}

func (o *Outbox) PaymentConfirmed(ctx context.Context, order *models.Order, recipient string) error {
	subject, body := paymentConfirmedEmail(order)
	return o.store.Enqueue(ctx, Message{
		ID:          gocql.TimeUUID(),
		Kind:        KindPaymentConfirmed,
		Recipient:   recipient,
		Subject:     subject,
		Body:        body,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OrderStatus: order.Status,
		Status:      MessagePending,
		CreatedAt:   time.Now().UTC(),
	})
}

// ServiceRequestUpdated notifie le client du traitement de sa demande SAV.
func (o *Outbox) ServiceRequestUpdated(ctx context.Context, req *models.ServiceRequest) error {
	if req.Email == "" {
		return nil
	}
	subject, body := serviceRequestEmail(req)
	return o.store.Enqueue(ctx, Message{
		ID:          gocql.TimeUUID(),
		Kind:        KindServiceRequest,
		Recipient:   req.Email,
		Subject:     subject,
		Body:        body,
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		OrderStatus: req.Status,
		Status:      MessagePending,
		CreatedAt:   time.Now().UTC(),
	})
}

// Worker draine l'outbox à intervalle fixe : envoi email + publication de
// l'événement sur le bus, puis marquage SENT. Un échec laisse la ligne en
// PENDING (jusqu'à maxAttempts) pour retenter au tour suivant.
type Worker struct {
	store     OutboxStore
	sender    Sender
	publisher Publisher
	interval  time.Duration
	batchSize int
}

func NewWorker(store OutboxStore, sender Sender, publisher Publisher, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Worker{
		store:     store,
		sender:    sender,
		publisher: publisher,
		interval:  interval,
		batchSize: 50,
	}
}

// Run boucle jusqu'à annulation du contexte.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("📬 Worker outbox démarré (intervalle %s)", w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("📬 Worker outbox arrêté")
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain traite un lot de messages en attente. Exporté pour les tests et pour
// un flush manuel au shutdown.
func (w *Worker) Drain(ctx context.Context) {
	pending, err := w.store.FetchPending(ctx, w.batchSize)
	if err != nil {
		log.Printf("❌ Lecture outbox: %v", err)
		return
	}

	for _, m := range pending {
		if err := w.deliver(ctx, m); err != nil {
			attempts := m.Attempts + 1
			log.Printf("⚠️ Envoi notification %s (%s, tentative %d): %v", m.ID, m.Recipient, attempts, err)
			if markErr := w.store.MarkFailed(ctx, m.ID, attempts, err.Error()); markErr != nil {
				log.Printf("❌ Marquage échec %s: %v", m.ID, markErr)
			}
			continue
		}
		if err := w.store.MarkSent(ctx, m.ID); err != nil {
			// l'email partira peut-être deux fois, jamais zéro
			log.Printf("❌ Marquage envoi %s: %v", m.ID, err)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, m Message) error {
	if err := w.sender.Send(ctx, m.Recipient, m.Subject, m.Body); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	if w.publisher != nil {
		event := map[string]any{
			"kind":         m.Kind,
			"order_id":     m.OrderID.String(),
			"order_number": m.OrderNumber,
			"status":       m.OrderStatus,
			"recipient":    m.Recipient,
			"sent_at":      time.Now().UTC().Format(time.RFC3339),
		}
		if err := w.publisher.Publish(ctx, m.OrderID.String(), event); err != nil {
			// le bus est du reporting, pas un prérequis de l'envoi
			log.Printf("⚠️ Publication événement %s: %v", m.OrderNumber, err)
		}
	}
	return nil
}

// ScyllaOutbox persiste l'outbox dans le keyspace orders.
type ScyllaOutbox struct {
	session *gocql.Session
}

func NewScyllaOutbox(session *gocql.Session) *ScyllaOutbox {
	return &ScyllaOutbox{session: session}
}

func (s *ScyllaOutbox) Enqueue(ctx context.Context, m Message) error {
	return s.session.Query(`
		INSERT INTO notifications_outbox
			(id, kind, recipient, subject, body, order_id, order_number, order_status, status, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Kind, m.Recipient, m.Subject, m.Body,
		m.OrderID, m.OrderNumber, m.OrderStatus, m.Status, m.Attempts, m.CreatedAt).
		WithContext(ctx).Exec()
}

// FetchPending scanne les lignes PENDING. Le volume reste borné : les lignes
// passent en SENT/FAILED au fil de l'eau, d'où le ALLOW FILTERING assumé.
func (s *ScyllaOutbox) FetchPending(ctx context.Context, limit int) ([]Message, error) {
	iter := s.session.Query(`
		SELECT id, kind, recipient, subject, body, order_id, order_number, order_status, status, attempts, last_error, created_at
		FROM notifications_outbox WHERE status = ? LIMIT ? ALLOW FILTERING`,
		MessagePending, limit).WithContext(ctx).Iter()

	var list []Message
	var m Message
	for iter.Scan(&m.ID, &m.Kind, &m.Recipient, &m.Subject, &m.Body,
		&m.OrderID, &m.OrderNumber, &m.OrderStatus, &m.Status, &m.Attempts, &m.LastError, &m.CreatedAt) {
		list = append(list, m)
		m = Message{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ScyllaOutbox) MarkSent(ctx context.Context, id gocql.UUID) error {
	return s.session.Query(`
		UPDATE notifications_outbox SET status = ?, sent_at = ? WHERE id = ?`,
		MessageSent, time.Now().UTC(), id).WithContext(ctx).Exec()
}

func (s *ScyllaOutbox) MarkFailed(ctx context.Context, id gocql.UUID, attempts int, lastError string) error {
	status := MessagePending
	if attempts >= maxAttempts {
		status = MessageFailed
	}
	return s.session.Query(`
		UPDATE notifications_outbox SET status = ?, attempts = ?, last_error = ? WHERE id = ?`,
		status, attempts, lastError, id).WithContext(ctx).Exec()
}
