package storefront

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/orders"
	"fusionmarkt_backend/internal/store"
)

// ServiceRequestHandler : dépôt de demandes SAV par les clients.
type ServiceRequestHandler struct {
	requests *store.ServiceRequestsStore
	orders   *store.OrdersStore
}

func NewServiceRequestHandler(requests *store.ServiceRequestsStore, ordersStore *store.OrdersStore) *ServiceRequestHandler {
	return &ServiceRequestHandler{requests: requests, orders: ordersStore}
}

// POST /api/service-requests
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		OrderID     string `json:"order_id" binding:"required"`
		Subject     string `json:"subject" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	orderID, err := gocql.ParseUUID(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := h.orders.FindOrder(c.Request.Context(), orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}
	if order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	request := models.ServiceRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      userID,
		Email:       order.BillingEmail,
		Subject:     req.Subject,
		Description: req.Description,
	}
	if err := h.requests.Create(c.Request.Context(), &request); err != nil {
		log.Printf("❌ Création demande SAV pour %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("🛠️ Demande SAV %s créée pour la commande %s", request.ID, order.OrderNumber)
	c.JSON(http.StatusCreated, gin.H{"success": true, "request": request})
}
