package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/shipping"
)

// ShippingHandler : gestion des règles de livraison.
type ShippingHandler struct {
	store *shipping.ScyllaRuleStore
}

func NewShippingHandler(store *shipping.ScyllaRuleStore) *ShippingHandler {
	return &ShippingHandler{store: store}
}

// GET /api/admin/shipping-rules
func (h *ShippingHandler) List(c *gin.Context) {
	rules, err := h.store.AllRules(c.Request.Context())
	if err != nil {
		log.Printf("❌ Listing règles de livraison: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture règles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

// POST /api/admin/shipping-rules
func (h *ShippingHandler) Create(c *gin.Context) {
	var req struct {
		Name          string  `json:"name" binding:"required"`
		CarrierName   string  `json:"carrier_name" binding:"required"`
		MinSubtotal   float64 `json:"min_subtotal"`
		MaxSubtotal   float64 `json:"max_subtotal"`
		Cost          float64 `json:"cost"`
		EstimatedDays int     `json:"estimated_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if req.MaxSubtotal > 0 && req.MaxSubtotal <= req.MinSubtotal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_subtotal doit dépasser min_subtotal"})
		return
	}

	rule := models.ShippingRule{
		Name:          req.Name,
		CarrierName:   req.CarrierName,
		MinSubtotal:   req.MinSubtotal,
		MaxSubtotal:   req.MaxSubtotal,
		Cost:          req.Cost,
		EstimatedDays: req.EstimatedDays,
		IsActive:      true,
	}
	if err := h.store.SaveRule(c.Request.Context(), &rule); err != nil {
		log.Printf("❌ Création règle %s: %v", rule.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création règle"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "rule": rule})
}

// PUT /api/admin/shipping-rules/:id
func (h *ShippingHandler) Update(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID règle invalide"})
		return
	}

	var rule models.ShippingRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	rule.ID = id

	if err := h.store.SaveRule(c.Request.Context(), &rule); err != nil {
		log.Printf("❌ Mise à jour règle %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour règle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rule": rule})
}

// DELETE /api/admin/shipping-rules/:id
func (h *ShippingHandler) Delete(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID règle invalide"})
		return
	}
	if err := h.store.DeleteRule(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression règle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
