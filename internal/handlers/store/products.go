package storefront

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/shipping"
	"fusionmarkt_backend/internal/store"
)

// CatalogHandler : catalogue public et devis de livraison.
type CatalogHandler struct {
	products *store.ProductsStore
	shipping *shipping.Calculator
}

func NewCatalogHandler(products *store.ProductsStore, shippingCalc *shipping.Calculator) *CatalogHandler {
	return &CatalogHandler{products: products, shipping: shippingCalc}
}

// GET /api/products
func (h *CatalogHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}

	list, err := h.products.ListProducts(c.Request.Context(), limit)
	if err != nil {
		log.Printf("❌ Listing produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list, "count": len(list)})
}

// GET /api/shipping/quote?subtotal=...
func (h *CatalogHandler) ShippingQuote(c *gin.Context) {
	subtotal, err := strconv.ParseFloat(c.Query("subtotal"), 64)
	if err != nil || subtotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre subtotal invalide"})
		return
	}

	quote, err := h.shipping.Quote(c.Request.Context(), subtotal)
	if err != nil {
		log.Printf("❌ Devis livraison: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur calcul livraison"})
		return
	}
	c.JSON(http.StatusOK, quote)
}
