package admin

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fusionmarkt_backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// l'authentification est déjà faite par le middleware JWT
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub diffuse les mises à jour de commandes aux dashboards admin connectés.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Serve upgrade la connexion et garde le client jusqu'à déconnexion.
// GET /api/admin/live
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Upgrade websocket: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("🔌 Dashboard admin connecté (%d clients)", total)

	// boucle de lecture : on ignore les messages entrants, elle sert à
	// détecter la fermeture
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// BroadcastOrderUpdate pousse le nouveau statut à tous les clients. Un client
// en échec est déconnecté.
func (h *Hub) BroadcastOrderUpdate(order *models.Order, statusLabel string) {
	payload := gin.H{
		"type":           "order_updated",
		"order_id":       order.ID.String(),
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"status_label":   statusLabel,
		"payment_status": order.PaymentStatus,
		"updated_at":     order.UpdatedAt.Format(time.RFC3339),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(payload); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
