package admin

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/store"
)

// DashboardHandler agrège les chiffres du back-office.
type DashboardHandler struct {
	orders *store.OrdersStore
}

func NewDashboardHandler(orders *store.OrdersStore) *DashboardHandler {
	return &DashboardHandler{orders: orders}
}

// GET /api/admin/dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	list, err := h.orders.ListOrders(c.Request.Context(), 1000)
	if err != nil {
		log.Printf("❌ Stats dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	byStatus := make(map[string]int)
	var revenue, revenueToday float64
	var ordersToday int
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, o := range list {
		byStatus[o.Status]++
		// le chiffre d'affaires exclut les commandes annulées/remboursées
		if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusRefunded {
			continue
		}
		if o.PaymentStatus == models.PaymentStatusPaid {
			revenue += o.Total
			if !o.CreatedAt.Before(today) {
				revenueToday += o.Total
			}
		}
		if !o.CreatedAt.Before(today) {
			ordersToday++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_orders":     len(list),
		"orders_by_status": byStatus,
		"revenue":          revenue,
		"revenue_today":    revenueToday,
		"orders_today":     ordersToday,
		"pending_count":    byStatus[models.OrderStatusPending],
		"processing_count": byStatus[models.OrderStatusProcessing],
	})
}
