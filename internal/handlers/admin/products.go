package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/search"
	"fusionmarkt_backend/internal/store"
)

// ProductHandler : gestion du catalogue côté back-office. Chaque écriture
// est répercutée dans l'index Elasticsearch de la boutique.
type ProductHandler struct {
	store *store.ProductsStore
}

func NewProductHandler(st *store.ProductsStore) *ProductHandler {
	return &ProductHandler{store: st}
}

// POST /api/admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req struct {
		Name              string   `json:"name" binding:"required"`
		Description       string   `json:"description"`
		Price             float64  `json:"price" binding:"required,gt=0"`
		Stock             int      `json:"stock" binding:"gte=0"`
		LowStockThreshold int      `json:"low_stock_threshold"`
		SKU               string   `json:"sku" binding:"required"`
		CategoryID        string   `json:"category_id"`
		ImageURLs         []string `json:"image_urls"`
		Tags              []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	p := models.Product{
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		SKU:               req.SKU,
		ImageURLs:         req.ImageURLs,
		Tags:              req.Tags,
		IsActive:          true,
	}
	if req.CategoryID != "" {
		catID, err := gocql.ParseUUID(req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category_id invalide"})
			return
		}
		p.CategoryID = catID
	}

	if err := h.store.CreateProduct(c.Request.Context(), &p); err != nil {
		log.Printf("❌ Création produit %s: %v", req.SKU, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit"})
		return
	}

	search.IndexProduct(c.Request.Context(), p)
	log.Printf("📦 Produit %s créé (%s)", p.SKU, p.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": p})
}

// PUT /api/admin/products/:id/stock : réassort ou correction manuelle.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var req struct {
		Delta  int    `json:"delta" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	newStock, err := h.store.AdjustStock(c.Request.Context(), id, req.Delta, req.Reason)
	if err != nil {
		log.Printf("❌ Ajustement stock %s: %v", id, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product_id": id.String(), "stock": newStock})
}

// GET /api/admin/products/:id/movements
func (h *ProductHandler) Movements(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	movements, err := h.store.StockMovements(c.Request.Context(), id, 100)
	if err != nil {
		log.Printf("❌ Mouvements de stock %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture mouvements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// DELETE /api/admin/products/:id : retrait du catalogue (pas de purge : les
// commandes existantes référencent toujours le produit).
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	if err := h.store.SetProductActive(c.Request.Context(), id, false); err != nil {
		log.Printf("❌ Désactivation produit %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur désactivation produit"})
		return
	}

	search.RemoveProduct(c.Request.Context(), id.String())
	log.Printf("🗑️ Produit %s retiré du catalogue", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "product_id": id.String()})
}
