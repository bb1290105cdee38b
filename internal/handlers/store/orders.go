package storefront

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/orders"
	"fusionmarkt_backend/internal/store"
)

// OrdersHandler : consultation des commandes côté client.
type OrdersHandler struct {
	store *store.OrdersStore
}

func NewOrdersHandler(st *store.OrdersStore) *OrdersHandler {
	return &OrdersHandler{store: st}
}

// GET /api/my-orders
func (h *OrdersHandler) MyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	list, err := h.store.OrdersByUser(c.Request.Context(), userID, limit)
	if err != nil {
		log.Printf("❌ Commandes de %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	type summaryWithLabel struct {
		store.OrderSummary
		StatusLabel string `json:"status_label"`
	}
	out := make([]summaryWithLabel, 0, len(list))
	for _, o := range list {
		out = append(out, summaryWithLabel{OrderSummary: o, StatusLabel: orders.StatusLabel(o.Status)})
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

// GET /api/my-orders/:id : détail avec journal, réservé au propriétaire
func (h *OrdersHandler) MyOrderDetail(c *gin.Context) {
	userID := c.GetString("user_id")

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := h.store.FindOrder(c.Request.Context(), orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Lecture commande %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}
	if order.UserID != userID {
		// on ne révèle pas l'existence de la commande
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	history, err := h.store.History(c.Request.Context(), orderID)
	if err != nil {
		log.Printf("⚠️ Lecture journal %s: %v", orderID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"order":                order,
		"status_label":         orders.StatusLabel(order.Status),
		"payment_status_label": orders.PaymentStatusLabel(order.PaymentStatus),
		"history":              history,
	})
}
