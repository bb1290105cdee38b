package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts d'une demande SAV / garantie
const (
	ServiceRequestOpen     = "OPEN"
	ServiceRequestInReview = "IN_REVIEW"
	ServiceRequestApproved = "APPROVED"
	ServiceRequestRejected = "REJECTED"
	ServiceRequestClosed   = "CLOSED"
)

type ServiceRequest struct {
	ID          gocql.UUID `json:"id"`
	OrderID     gocql.UUID `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	UserID      string     `json:"user_id,omitempty"`
	Email       string     `json:"email"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AdminReply  string     `json:"admin_reply,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
