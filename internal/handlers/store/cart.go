package storefront

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/database"
	"fusionmarkt_backend/internal/models"
)

const cartTTL = 7 * 24 * time.Hour

func cartKey(userID string) string { return "cart:" + userID }

func loadCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	raw, err := database.Redis.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		return []models.CartItem{}, nil // panier vide ou Redis out : panier neuf
	}
	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("⚠️ Panier illisible pour %s, réinitialisé: %v", userID, err)
		return []models.CartItem{}, nil
	}
	return items, nil
}

func saveCart(ctx context.Context, userID string, items []models.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return database.Redis.Set(ctx, cartKey(userID), raw, cartTTL).Err()
}

// GET /api/cart
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	items, _ := loadCart(c.Request.Context(), userID)

	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// POST /api/cart
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.CartItem
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" || req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Article invalide"})
		return
	}

	items, _ := loadCart(c.Request.Context(), userID)

	merged := false
	for i := range items {
		if items[i].ProductID == req.ProductID && items[i].VariantID == req.VariantID {
			items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, req)
	}

	if err := saveCart(c.Request.Context(), userID, items); err != nil {
		log.Printf("❌ Sauvegarde panier %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
}

// DELETE /api/cart/:productId
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("productId")
	variantID := c.Query("variant_id")

	items, _ := loadCart(c.Request.Context(), userID)
	kept := items[:0]
	for _, it := range items {
		if it.ProductID == productID && it.VariantID == variantID {
			continue
		}
		kept = append(kept, it)
	}

	if err := saveCart(c.Request.Context(), userID, kept); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": kept})
}

// DELETE /api/cart
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := database.Redis.Del(c.Request.Context(), cartKey(userID)).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vidage panier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
