package storefront

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/coupons"
	"fusionmarkt_backend/internal/database"
	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/shipping"
	"fusionmarkt_backend/internal/store"
)

// CheckoutHandler transforme le panier en commande.
type CheckoutHandler struct {
	orders   *store.OrdersStore
	products *store.ProductsStore
	coupons  *coupons.Engine
	shipping *shipping.Calculator
}

func NewCheckoutHandler(orders *store.OrdersStore, products *store.ProductsStore, couponEngine *coupons.Engine, shippingCalc *shipping.Calculator) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, products: products, coupons: couponEngine, shipping: shippingCalc}
}

func newOrderNumber() string {
	return fmt.Sprintf("FM-%s-%04d", time.Now().UTC().Format("20060102"), rand.Intn(10000))
}

// GET /api/coupons/validate?code=XXX&subtotal=199.90
// Prévisualisation côté panier : le coupon est revalidé au checkout.
func (h *CheckoutHandler) ValidateCoupon(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre code requis"})
		return
	}
	subtotal, err := strconv.ParseFloat(c.Query("subtotal"), 64)
	if err != nil || subtotal <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre subtotal invalide"})
		return
	}

	validation, err := h.coupons.Validate(c.Request.Context(), code, c.GetString("user_id"), subtotal)
	if err != nil {
		log.Printf("❌ Validation coupon %s: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur validation coupon"})
		return
	}
	c.JSON(http.StatusOK, validation)
}

// POST /api/checkout
// Le paiement iyzico est fait côté client ; on reçoit ici les références de
// paiement et on matérialise la commande.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		BillingEmail         string                      `json:"billing_email" binding:"required,email"`
		CustomerName         string                      `json:"customer_name" binding:"required"`
		CouponCode           string                      `json:"coupon_code"`
		IyzicoPaymentID      string                      `json:"iyzico_payment_id"`
		IyzicoConversationID string                      `json:"iyzico_conversation_id"`
		PaymentTransactions  []models.PaymentTransaction `json:"iyzico_payment_transactions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cart, _ := loadCart(ctx, userID)
	if len(cart) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le panier est vide"})
		return
	}

	// prix et stock revalidés côté serveur, le panier ne fait pas foi
	var subtotal float64
	items := make([]models.OrderItem, 0, len(cart))
	for _, it := range cart {
		productID, err := gocql.ParseUUID(it.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Article de panier invalide"})
			return
		}
		product, err := h.products.FindProduct(ctx, productID)
		if err != nil || product == nil || !product.IsActive {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Le produit %s n'est plus disponible", it.Name)})
			return
		}

		price := product.Price
		if it.VariantID != "" {
			variant, err := h.products.FindVariant(ctx, productID, it.VariantID)
			if err != nil || variant == nil || !variant.IsActive {
				c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("La variante de %s n'est plus disponible", it.Name)})
				return
			}
			if variant.Stock < it.Quantity {
				c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Stock insuffisant pour %s", it.Name)})
				return
			}
			price = variant.Price
		} else if product.Stock < it.Quantity {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Stock insuffisant pour %s", it.Name)})
			return
		}

		subtotal += price * float64(it.Quantity)
		items = append(items, models.OrderItem{
			ProductID:   productID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			Price:       price,
			VariantInfo: it.VariantInfo,
		})
	}

	var discount float64
	freeShipping := false
	if req.CouponCode != "" {
		validation, err := h.coupons.Validate(ctx, req.CouponCode, userID, subtotal)
		if err != nil {
			log.Printf("❌ Validation coupon %s: %v", req.CouponCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur validation coupon"})
			return
		}
		if !validation.IsValid {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrorMessage})
			return
		}
		discount = validation.Discount
		freeShipping = validation.FreeShipping
	}

	quote, err := h.shipping.Quote(ctx, subtotal-discount)
	if err != nil {
		log.Printf("❌ Devis livraison: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur calcul livraison"})
		return
	}
	shippingCost := quote.Cost
	if freeShipping {
		shippingCost = 0
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:                   gocql.TimeUUID(),
		OrderNumber:          newOrderNumber(),
		UserID:               userID,
		BillingEmail:         req.BillingEmail,
		CustomerName:         req.CustomerName,
		Status:               models.OrderStatusPending,
		PaymentStatus:        models.PaymentStatusPending,
		Subtotal:             subtotal,
		Discount:             discount,
		ShippingCost:         shippingCost,
		Total:                subtotal - discount + shippingCost,
		CouponCode:           req.CouponCode,
		CarrierName:          quote.CarrierName,
		IyzicoPaymentID:      req.IyzicoPaymentID,
		IyzicoConversationID: req.IyzicoConversationID,
		PaymentTransactions:  req.PaymentTransactions,
		Items:                items,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	// réservation du stock avant l'écriture de la commande
	for _, it := range items {
		variantID := it.VariantID()
		reason := "vente commande " + order.OrderNumber
		if variantID != "" {
			err = h.products.DecrementVariantStock(ctx, it.ProductID, variantID, it.Quantity, reason)
		} else {
			err = h.products.DecrementProductStock(ctx, it.ProductID, it.Quantity, reason)
		}
		if err != nil {
			log.Printf("❌ Réservation stock %s: %v", order.OrderNumber, err)
			c.JSON(http.StatusConflict, gin.H{"error": "Stock insuffisant, veuillez réessayer"})
			return
		}
	}

	if err := h.orders.CreateOrder(ctx, order); err != nil {
		log.Printf("❌ Création commande %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	if req.CouponCode != "" {
		if err := h.coupons.Redeem(ctx, req.CouponCode, userID, order.ID); err != nil {
			log.Printf("⚠️ Trace coupon %s sur %s: %v", req.CouponCode, order.OrderNumber, err)
		}
	}

	if err := database.Redis.Del(ctx, cartKey(userID)).Err(); err != nil {
		log.Printf("⚠️ Vidage panier %s: %v", userID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})
}
