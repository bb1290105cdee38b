package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
)

var ErrUserNotFound = errors.New("utilisateur introuvable")

// UsersStore porte le keyspace users.
type UsersStore struct {
	session *gocql.Session
}

func NewUsersStore(session *gocql.Session) *UsersStore {
	return &UsersStore{session: session}
}

// CreateUser insère le compte et la vue de lookup par email. LWT sur l'email
// pour refuser les doublons.
func (s *UsersStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = gocql.TimeUUID().String()
	}
	u.CreatedAt = time.Now().UTC()

	applied, err := s.session.Query(`
		INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		u.Email, u.ID).WithContext(ctx).ScanCAS(nil, nil)
	if err != nil {
		return fmt.Errorf("réservation email %s: %w", u.Email, err)
	}
	if !applied {
		return fmt.Errorf("email %s déjà utilisé", u.Email)
	}

	uid, err := gocql.ParseUUID(u.ID)
	if err != nil {
		return fmt.Errorf("user_id invalide: %w", err)
	}
	return s.session.Query(`
		INSERT INTO users (id, name, email, password, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uid, u.Name, u.Email, u.Password, u.Role, u.IsActive, u.CreatedAt).
		WithContext(ctx).Exec()
}

func (s *UsersStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var userID string
	err := s.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
		WithContext(ctx).Scan(&userID)
	if err == gocql.ErrNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email %s: %w", email, err)
	}
	return s.FindByID(ctx, userID)
}

func (s *UsersStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	uid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("user_id invalide %q: %w", id, err)
	}

	var u models.User
	var storedID gocql.UUID
	err = s.session.Query(`
		SELECT id, name, email, password, role, is_active, created_at
		FROM users WHERE id = ?`, uid).WithContext(ctx).Scan(
		&storedID, &u.Name, &u.Email, &u.Password, &u.Role, &u.IsActive, &u.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur %s: %w", id, err)
	}
	u.ID = storedID.String()
	return &u, nil
}

// ListUsers retourne les comptes pour le back-office. Scan complet assumé :
// la table reste petite à l'échelle de la boutique.
func (s *UsersStore) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	iter := s.session.Query(`
		SELECT id, name, email, role, is_active, created_at
		FROM users LIMIT ?`, limit).WithContext(ctx).Iter()

	var list []models.User
	var u models.User
	var id gocql.UUID
	for iter.Scan(&id, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt) {
		u.ID = id.String()
		list = append(list, u)
		u = models.User{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("listing utilisateurs: %w", err)
	}
	return list, nil
}

// UpdateAccess modifie le rôle et/ou l'état actif d'un compte.
func (s *UsersStore) UpdateAccess(ctx context.Context, id string, role *string, isActive *bool) (*models.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != nil {
		u.Role = *role
	}
	if isActive != nil {
		u.IsActive = *isActive
	}

	uid, _ := gocql.ParseUUID(u.ID)
	if err := s.session.Query(`
		UPDATE users SET role = ?, is_active = ? WHERE id = ?`,
		u.Role, u.IsActive, uid).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("mise à jour accès %s: %w", id, err)
	}
	return u, nil
}
