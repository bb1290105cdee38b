package admin

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/coupons"
	"fusionmarkt_backend/internal/models"
)

// CouponHandler : CRUD des coupons côté back-office.
type CouponHandler struct {
	store *coupons.ScyllaStore
}

func NewCouponHandler(store *coupons.ScyllaStore) *CouponHandler {
	return &CouponHandler{store: store}
}

// GET /api/admin/coupons
func (h *CouponHandler) List(c *gin.Context) {
	list, err := h.store.ListCoupons(c.Request.Context())
	if err != nil {
		log.Printf("❌ Listing coupons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture coupons"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": list, "count": len(list)})
}

// POST /api/admin/coupons
func (h *CouponHandler) Create(c *gin.Context) {
	var req struct {
		Code           string   `json:"code" binding:"required"`
		Type           string   `json:"type" binding:"required"`
		Value          float64  `json:"value"`
		MinAmount      float64  `json:"min_amount"`
		MaxAmount      *float64 `json:"max_amount"`
		MaxUses        int      `json:"max_uses"`
		MaxUsesPerUser int      `json:"max_uses_per_user"`
		StartsAt       string   `json:"starts_at"`
		ExpiresAt      string   `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	switch req.Type {
	case coupons.TypePercentage, coupons.TypeFixed, coupons.TypeFreeShipping:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de coupon invalide"})
		return
	}
	if req.Type != coupons.TypeFreeShipping && req.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La valeur doit être positive"})
		return
	}

	coupon := models.Coupon{
		Code:           req.Code,
		Type:           req.Type,
		Value:          req.Value,
		MinAmount:      req.MinAmount,
		MaxAmount:      req.MaxAmount,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		IsActive:       true,
		CreatedBy:      c.GetString("user_id"),
	}
	if req.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at invalide (RFC3339 attendu)"})
			return
		}
		coupon.StartsAt = t
	}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at invalide (RFC3339 attendu)"})
			return
		}
		coupon.ExpiresAt = t
	}

	if err := h.store.SaveCoupon(c.Request.Context(), &coupon); err != nil {
		log.Printf("❌ Création coupon %s: %v", coupon.Code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création coupon"})
		return
	}

	log.Printf("🎟️ Coupon %s créé par %s", coupon.Code, coupon.CreatedBy)
	c.JSON(http.StatusCreated, gin.H{"success": true, "coupon": coupon})
}

// PUT /api/admin/coupons/:id : active/désactive un coupon
func (h *CouponHandler) SetActive(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID coupon invalide"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active requis"})
		return
	}

	list, err := h.store.ListCoupons(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture coupons"})
		return
	}
	for i := range list {
		if list[i].ID == id {
			list[i].IsActive = *req.IsActive
			if err := h.store.SaveCoupon(c.Request.Context(), &list[i]); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour coupon"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "coupon": list[i]})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Coupon introuvable"})
}

// DELETE /api/admin/coupons/:id
func (h *CouponHandler) Delete(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID coupon invalide"})
		return
	}

	list, err := h.store.ListCoupons(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture coupons"})
		return
	}
	for _, coupon := range list {
		if coupon.ID == id {
			if err := h.store.DeleteCoupon(c.Request.Context(), coupon.Code, coupon.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression coupon"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Coupon introuvable"})
}
