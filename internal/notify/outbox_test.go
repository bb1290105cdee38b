package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

type memOutbox struct {
	messages map[gocql.UUID]*Message
	fetchErr error
}

func newMemOutbox() *memOutbox {
	return &memOutbox{messages: make(map[gocql.UUID]*Message)}
}

func (s *memOutbox) Enqueue(_ context.Context, m Message) error {
	clone := m
	s.messages[m.ID] = &clone
	return nil
}

func (s *memOutbox) FetchPending(_ context.Context, limit int) ([]Message, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []Message
	for _, m := range s.messages {
		if m.Status == MessagePending && len(out) < limit {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memOutbox) MarkSent(_ context.Context, id gocql.UUID) error {
	if m, ok := s.messages[id]; ok {
		m.Status = MessageSent
		now := time.Now().UTC()
		m.SentAt = &now
	}
	return nil
}

func (s *memOutbox) MarkFailed(_ context.Context, id gocql.UUID, attempts int, lastError string) error {
	if m, ok := s.messages[id]; ok {
		m.Attempts = attempts
		m.LastError = lastError
		if attempts >= maxAttempts {
			m.Status = MessageFailed
		}
	}
	return nil
}

type memSender struct {
	sent []string // destinataires
	err  error
}

func (s *memSender) Send(_ context.Context, to, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

type memPublisher struct {
	keys []string
	err  error
}

func (p *memPublisher) Publish(_ context.Context, key string, _ any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	return nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:           gocql.TimeUUID(),
		OrderNumber:  "FM-2001",
		CustomerName: "Ayşe Demir",
		Status:       models.OrderStatusShipped,
		PaymentStatus: models.PaymentStatusPaid,
		Total:        349.90,
		TrackingNumber: "TRK-42",
		CarrierName:  "Yurtiçi",
	}
}

func TestOutbox_EnqueueStatusChanged(t *testing.T) {
	store := newMemOutbox()
	outbox := NewOutbox(store)

	if err := outbox.OrderStatusChanged(context.Background(), sampleOrder(), "ayse@example.com"); err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if len(store.messages) != 1 {
		t.Fatalf("1 message attendu, obtenu %d", len(store.messages))
	}
	for _, m := range store.messages {
		if m.Status != MessagePending || m.Kind != KindOrderStatus {
			t.Errorf("message inattendu: %+v", m)
		}
		if m.Recipient != "ayse@example.com" {
			t.Errorf("destinataire inattendu: %s", m.Recipient)
		}
		if !strings.Contains(m.Subject, "FM-2001") || !strings.Contains(m.Subject, "Kargoya Verildi") {
			t.Errorf("sujet inattendu: %s", m.Subject)
		}
		if !strings.Contains(m.Body, "TRK-42") {
			t.Error("le corps doit porter le numéro de suivi")
		}
	}
}

func TestWorker_DrainMarksSent(t *testing.T) {
	store := newMemOutbox()
	sender := &memSender{}
	publisher := &memPublisher{}
	outbox := NewOutbox(store)
	worker := NewWorker(store, sender, publisher, time.Minute)

	order := sampleOrder()
	if err := outbox.PaymentConfirmed(context.Background(), order, "ayse@example.com"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	worker.Drain(context.Background())

	if len(sender.sent) != 1 || sender.sent[0] != "ayse@example.com" {
		t.Errorf("envoi inattendu: %v", sender.sent)
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != order.ID.String() {
		t.Errorf("publication inattendue: %v", publisher.keys)
	}
	for _, m := range store.messages {
		if m.Status != MessageSent {
			t.Errorf("message non marqué SENT: %+v", m)
		}
	}

	// second passage : rien à faire
	worker.Drain(context.Background())
	if len(sender.sent) != 1 {
		t.Errorf("pas de renvoi attendu, obtenu %d envois", len(sender.sent))
	}
}

func TestWorker_RetryThenGiveUp(t *testing.T) {
	store := newMemOutbox()
	sender := &memSender{err: errors.New("smtp injoignable")}
	outbox := NewOutbox(store)
	worker := NewWorker(store, sender, nil, time.Minute)

	if err := outbox.OrderStatusChanged(context.Background(), sampleOrder(), "ayse@example.com"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for i := 0; i < maxAttempts; i++ {
		worker.Drain(context.Background())
	}

	for _, m := range store.messages {
		if m.Status != MessageFailed {
			t.Errorf("FAILED attendu après %d tentatives, obtenu %s (tentatives=%d)", maxAttempts, m.Status, m.Attempts)
		}
		if m.LastError == "" {
			t.Error("last_error doit être renseigné")
		}
	}

	// une fois FAILED, plus de tentative
	worker.Drain(context.Background())
	for _, m := range store.messages {
		if m.Attempts != maxAttempts {
			t.Errorf("plus de tentatives attendues après FAILED, obtenu %d", m.Attempts)
		}
	}
}

func TestWorker_PublisherFailureDoesNotBlockSend(t *testing.T) {
	store := newMemOutbox()
	sender := &memSender{}
	publisher := &memPublisher{err: errors.New("broker indisponible")}
	outbox := NewOutbox(store)
	worker := NewWorker(store, sender, publisher, time.Minute)

	if err := outbox.OrderStatusChanged(context.Background(), sampleOrder(), "ayse@example.com"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	worker.Drain(context.Background())

	if len(sender.sent) != 1 {
		t.Errorf("l'email doit partir malgré le bus en panne, obtenu %d", len(sender.sent))
	}
	for _, m := range store.messages {
		if m.Status != MessageSent {
			t.Errorf("SENT attendu, obtenu %s", m.Status)
		}
	}
}
