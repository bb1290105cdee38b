package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/config"
	"fusionmarkt_backend/internal/coupons"
	"fusionmarkt_backend/internal/database"
	"fusionmarkt_backend/internal/handlers/admin"
	storefront "fusionmarkt_backend/internal/handlers/store"
	"fusionmarkt_backend/internal/invoice"
	"fusionmarkt_backend/internal/notify"
	"fusionmarkt_backend/internal/orders"
	"fusionmarkt_backend/internal/payment/iyzico"
	"fusionmarkt_backend/internal/routes"
	"fusionmarkt_backend/internal/shipping"
	"fusionmarkt_backend/internal/store"
)

func main() {
	config.Load()

	database.ConnectDatabases()
	defer database.CloseScylla()

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		log.Fatalf("❌ Session orders: %v", err)
	}
	productsSession, err := database.GetProductsSession()
	if err != nil {
		log.Fatalf("❌ Session products: %v", err)
	}
	usersSession, err := database.GetUsersSession()
	if err != nil {
		log.Fatalf("❌ Session users: %v", err)
	}

	// --- Stores ---
	ordersStore := store.NewOrdersStore(ordersSession, usersSession)
	productsStore := store.NewProductsStore(productsSession)
	usersStore := store.NewUsersStore(usersSession)
	requestsStore := store.NewServiceRequestsStore(ordersSession)
	couponStore := coupons.NewScyllaStore(ordersSession)
	ruleStore := shipping.NewScyllaRuleStore(ordersSession)
	locker := store.NewRedisLocker(database.Redis)

	// --- Passerelle iyzico ---
	iyzicoCfg := config.IyzicoConfig()
	gateway := iyzico.NewClient(iyzicoCfg, nil)
	if iyzicoCfg.Enabled {
		log.Println("✅ Passerelle iyzico activée:", iyzicoCfg.BaseURL)
	} else {
		log.Println("ℹ️ Passerelle iyzico désactivée (IYZICO_ENABLED != true)")
	}

	// --- Notifications : outbox + worker SMTP/Kafka ---
	outboxStore := notify.NewScyllaOutbox(ordersSession)
	outbox := notify.NewOutbox(outboxStore)

	mailer, err := notify.NewMailer(config.MailerConfig())
	if err != nil {
		log.Fatalf("❌ Client SMTP: %v", err)
	}

	var publisher notify.Publisher
	if brokers := config.KafkaBrokers(); len(brokers) > 0 {
		kafkaPub := notify.NewKafkaPublisher(brokers, "fusionmarkt.order-events")
		defer kafkaPub.Close()
		publisher = kafkaPub
		log.Println("✅ Producteur Kafka connecté:", strings.Join(brokers, ","))
	} else {
		log.Println("ℹ️ KAFKA_BROKERS absent, événements non publiés")
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := notify.NewWorker(outboxStore, mailer, publisher, 15*time.Second)
	go worker.Run(workerCtx)

	// --- Contrôleur de cycle de vie ---
	controller := orders.NewController(ordersStore, productsStore, gateway, iyzicoCfg.Enabled, outbox, locker)

	// --- Facturation ---
	trackingURL := os.Getenv("ORDER_TRACKING_URL")
	if trackingURL == "" {
		trackingURL = "https://fusionmarkt.com/siparis"
	}
	invoices := invoice.NewGenerator(database.MinIO, os.Getenv("MINIO_BUCKET"), trackingURL)

	// --- Métier boutique ---
	couponEngine := coupons.NewEngine(couponStore)
	shippingCalc := shipping.NewCalculator(ruleStore, config.FreeShippingThreshold(), config.DefaultShippingCost())

	// --- HTTP ---
	live := admin.NewHub()
	handlers := &routes.Handlers{
		Auth:            storefront.NewAuthHandler(usersStore),
		Catalog:         storefront.NewCatalogHandler(productsStore, shippingCalc),
		Checkout:        storefront.NewCheckoutHandler(ordersStore, productsStore, couponEngine, shippingCalc),
		MyOrders:        storefront.NewOrdersHandler(ordersStore),
		ServiceRequests: storefront.NewServiceRequestHandler(requestsStore, ordersStore),

		AdminOrders:          admin.NewOrderHandler(controller, ordersStore, invoices, live),
		AdminProducts:        admin.NewProductHandler(productsStore),
		AdminUsers:           admin.NewUserHandler(usersStore),
		AdminCoupons:         admin.NewCouponHandler(couponStore),
		AdminShipping:        admin.NewShippingHandler(ruleStore),
		AdminServiceRequests: admin.NewServiceRequestHandler(requestsStore, outbox),
		AdminDashboard:       admin.NewDashboardHandler(ordersStore),
		Live:                 live,
	}

	origins := strings.Split(os.Getenv("CORS_ORIGINS"), ",")
	if origins[0] == "" {
		origins = []string{"http://localhost:3000"}
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.RegisterRoutes(r, handlers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		log.Println("🚀 Serveur FusionMarkt lancé sur le port", port)
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("❌ Serveur HTTP: %v", err)
		}
	}()

	// arrêt propre : on draine l'outbox une dernière fois avant de sortir
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Arrêt demandé")

	stopWorker()
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	worker.Drain(flushCtx)
}
