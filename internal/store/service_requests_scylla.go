package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

var ErrServiceRequestNotFound = errors.New("demande SAV introuvable")

// ServiceRequestsStore porte les demandes SAV/garantie (keyspace orders).
type ServiceRequestsStore struct {
	session *gocql.Session
}

func NewServiceRequestsStore(session *gocql.Session) *ServiceRequestsStore {
	return &ServiceRequestsStore{session: session}
}

func (s *ServiceRequestsStore) Create(ctx context.Context, r *models.ServiceRequest) error {
	if r.ID == (gocql.UUID{}) {
		r.ID = gocql.TimeUUID()
	}
	r.Status = models.ServiceRequestOpen
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt

	return s.session.Query(`
		INSERT INTO service_requests (id, order_id, order_number, user_id, email, subject, description, status, admin_reply, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OrderID, r.OrderNumber, r.UserID, r.Email, r.Subject, r.Description,
		r.Status, r.AdminReply, r.CreatedAt, r.UpdatedAt).WithContext(ctx).Exec()
}

func (s *ServiceRequestsStore) FindByID(ctx context.Context, id gocql.UUID) (*models.ServiceRequest, error) {
	var r models.ServiceRequest
	err := s.session.Query(`
		SELECT id, order_id, order_number, user_id, email, subject, description, status, admin_reply, created_at, updated_at
		FROM service_requests WHERE id = ?`, id).WithContext(ctx).Scan(
		&r.ID, &r.OrderID, &r.OrderNumber, &r.UserID, &r.Email, &r.Subject, &r.Description,
		&r.Status, &r.AdminReply, &r.CreatedAt, &r.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrServiceRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture demande SAV %s: %w", id, err)
	}
	return &r, nil
}

func (s *ServiceRequestsStore) List(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	iter := s.session.Query(`
		SELECT id, order_id, order_number, user_id, email, subject, description, status, admin_reply, created_at, updated_at
		FROM service_requests LIMIT ?`, limit).WithContext(ctx).Iter()

	var list []models.ServiceRequest
	var r models.ServiceRequest
	for iter.Scan(&r.ID, &r.OrderID, &r.OrderNumber, &r.UserID, &r.Email, &r.Subject, &r.Description,
		&r.Status, &r.AdminReply, &r.CreatedAt, &r.UpdatedAt) {
		list = append(list, r)
		r = models.ServiceRequest{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("listing demandes SAV: %w", err)
	}
	return list, nil
}

// UpdateStatus change le statut d'une demande et, le cas échéant, la réponse
// affichée au client.
func (s *ServiceRequestsStore) UpdateStatus(ctx context.Context, id gocql.UUID, status, adminReply string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return s.session.Query(`
		UPDATE service_requests SET status = ?, admin_reply = ?, updated_at = ? WHERE id = ?`,
		status, adminReply, time.Now().UTC(), id).WithContext(ctx).Exec()
}
