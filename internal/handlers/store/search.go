package storefront

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/search"
)

// GET /api/search?q=...
func SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}
	if len(query) > 200 {
		query = query[:200]
	}

	results, err := search.SearchProducts(c.Request.Context(), query)
	if err != nil {
		log.Printf("❌ Recherche %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
