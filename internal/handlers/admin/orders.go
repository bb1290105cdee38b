package admin

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/invoice"
	"fusionmarkt_backend/internal/orders"
	"fusionmarkt_backend/internal/store"
)

// OrderHandler expose les opérations back-office sur les commandes.
type OrderHandler struct {
	ctrl     *orders.Controller
	store    *store.OrdersStore
	invoices *invoice.Generator
	live     *Hub
}

func NewOrderHandler(ctrl *orders.Controller, st *store.OrdersStore, invoices *invoice.Generator, live *Hub) *OrderHandler {
	return &OrderHandler{ctrl: ctrl, store: st, invoices: invoices, live: live}
}

// UpdateOrder applique une transition de statut/paiement et/ou met à jour les
// champs de suivi. PUT /api/admin/orders/:id
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var req struct {
		Status         *string `json:"status"`
		PaymentStatus  *string `json:"payment_status"`
		TrackingNumber *string `json:"tracking_number"`
		CarrierName    *string `json:"carrier_name"`
		AdminNote      *string `json:"admin_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	res, err := h.ctrl.Transition(c.Request.Context(), orderID, orders.TransitionRequest{
		Status:         req.Status,
		PaymentStatus:  req.PaymentStatus,
		TrackingNumber: req.TrackingNumber,
		CarrierName:    req.CarrierName,
		AdminNote:      req.AdminNote,
		ClientIP:       c.ClientIP(),
	})
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	case errors.Is(err, orders.ErrInvalidStatus), errors.Is(err, orders.ErrInvalidPaymentStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut invalide"})
		return
	case errors.Is(err, orders.ErrTransitionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Une autre mise à jour est en cours sur cette commande"})
		return
	case err != nil:
		log.Printf("❌ Transition commande %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
		return
	}

	if h.live != nil {
		h.live.BroadcastOrderUpdate(res.Order, res.StatusLabel)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"order":                res.Order,
		"status_label":         res.StatusLabel,
		"payment_status_label": res.PaymentStatusLabel,
		"stock_restored":       res.StockRestored,
		"gateway":              res.Gateway,
	})
}

// DeleteOrder purge définitivement une commande. DELETE /api/admin/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	err = h.ctrl.Delete(c.Request.Context(), orderID)
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	case errors.Is(err, orders.ErrTransitionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Une autre mise à jour est en cours sur cette commande"})
		return
	case err != nil:
		log.Printf("❌ Suppression commande %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression commande"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": orderID.String()})
}

// ListOrders retourne les commandes, les plus récentes d'abord.
// GET /api/admin/orders?limit=100
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	list, err := h.store.ListOrders(c.Request.Context(), limit)
	if err != nil {
		log.Printf("❌ Listing commandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

// GetOrder retourne le détail complet d'une commande avec son journal.
// GET /api/admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
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

// GetInvoice rend la facture PDF d'une commande.
// GET /api/admin/orders/:id/invoice
func (h *OrderHandler) GetInvoice(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}

	pdf, _, err := h.invoices.Generate(c.Request.Context(), order)
	if err != nil {
		log.Printf("❌ Facture %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération facture"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+order.OrderNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
