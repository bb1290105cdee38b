package routes

import (
	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/handlers/admin"
	storefront "fusionmarkt_backend/internal/handlers/store"
	"fusionmarkt_backend/internal/middleware"
)

// Handlers regroupe les handlers instanciés par main.
type Handlers struct {
	Auth            *storefront.AuthHandler
	Catalog         *storefront.CatalogHandler
	Checkout        *storefront.CheckoutHandler
	MyOrders        *storefront.OrdersHandler
	ServiceRequests *storefront.ServiceRequestHandler

	AdminOrders          *admin.OrderHandler
	AdminProducts        *admin.ProductHandler
	AdminUsers           *admin.UserHandler
	AdminCoupons         *admin.CouponHandler
	AdminShipping        *admin.ShippingHandler
	AdminServiceRequests *admin.ServiceRequestHandler
	AdminDashboard       *admin.DashboardHandler
	Live                 *admin.Hub
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// --- Public ---
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", middleware.LoginRateLimit(), h.Auth.Login)
	api.GET("/products", h.Catalog.List)
	api.GET("/search", middleware.SearchRateLimit(), storefront.SearchProducts)
	api.GET("/shipping/quote", h.Catalog.ShippingQuote)

	// --- Client authentifié ---
	user := api.Group("")
	user.Use(middleware.AuthRequired())
	{
		user.GET("/cart", storefront.GetCart)
		user.POST("/cart", storefront.AddToCart)
		user.DELETE("/cart", storefront.ClearCart)
		user.DELETE("/cart/:productId", storefront.RemoveFromCart)

		user.GET("/coupons/validate", h.Checkout.ValidateCoupon)
		user.POST("/checkout", h.Checkout.Checkout)
		user.GET("/my-orders", h.MyOrders.MyOrders)
		user.GET("/my-orders/:id", h.MyOrders.MyOrderDetail)
		user.POST("/service-requests", h.ServiceRequests.Create)
	}

	// --- Back-office ---
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		adminGroup.GET("/orders", h.AdminOrders.ListOrders)
		adminGroup.GET("/orders/:id", h.AdminOrders.GetOrder)
		adminGroup.PUT("/orders/:id", h.AdminOrders.UpdateOrder)
		adminGroup.DELETE("/orders/:id", h.AdminOrders.DeleteOrder)
		adminGroup.GET("/orders/:id/invoice", h.AdminOrders.GetInvoice)

		adminGroup.POST("/products", h.AdminProducts.Create)
		adminGroup.PUT("/products/:id/stock", h.AdminProducts.AdjustStock)
		adminGroup.GET("/products/:id/movements", h.AdminProducts.Movements)
		adminGroup.DELETE("/products/:id", h.AdminProducts.Deactivate)

		adminGroup.GET("/users", h.AdminUsers.List)
		adminGroup.PUT("/users/:id", h.AdminUsers.UpdateAccess)

		adminGroup.GET("/coupons", h.AdminCoupons.List)
		adminGroup.POST("/coupons", h.AdminCoupons.Create)
		adminGroup.PUT("/coupons/:id", h.AdminCoupons.SetActive)
		adminGroup.DELETE("/coupons/:id", h.AdminCoupons.Delete)

		adminGroup.GET("/shipping-rules", h.AdminShipping.List)
		adminGroup.POST("/shipping-rules", h.AdminShipping.Create)
		adminGroup.PUT("/shipping-rules/:id", h.AdminShipping.Update)
		adminGroup.DELETE("/shipping-rules/:id", h.AdminShipping.Delete)

		adminGroup.GET("/service-requests", h.AdminServiceRequests.List)
		adminGroup.PUT("/service-requests/:id", h.AdminServiceRequests.Update)

		adminGroup.GET("/dashboard", h.AdminDashboard.Stats)
		adminGroup.GET("/live", h.Live.Serve)
	}
}
