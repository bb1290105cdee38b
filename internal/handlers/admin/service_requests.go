package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/notify"
	"fusionmarkt_backend/internal/store"
)

var validRequestStatuses = map[string]bool{
	models.ServiceRequestOpen:     true,
	models.ServiceRequestInReview: true,
	models.ServiceRequestApproved: true,
	models.ServiceRequestRejected: true,
	models.ServiceRequestClosed:   true,
}

// ServiceRequestHandler : traitement des demandes SAV côté back-office.
type ServiceRequestHandler struct {
	store  *store.ServiceRequestsStore
	outbox *notify.Outbox
}

func NewServiceRequestHandler(st *store.ServiceRequestsStore, outbox *notify.Outbox) *ServiceRequestHandler {
	return &ServiceRequestHandler{store: st, outbox: outbox}
}

// GET /api/admin/service-requests?limit=100
func (h *ServiceRequestHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	list, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		log.Printf("❌ Listing demandes SAV: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture demandes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list, "count": len(list)})
}

// PUT /api/admin/service-requests/:id
func (h *ServiceRequestHandler) Update(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID demande invalide"})
		return
	}

	var req struct {
		Status     string `json:"status" binding:"required"`
		AdminReply string `json:"admin_reply"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if !validRequestStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut de demande invalide"})
		return
	}

	err = h.store.UpdateStatus(c.Request.Context(), id, req.Status, req.AdminReply)
	if errors.Is(err, store.ErrServiceRequestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Mise à jour demande SAV %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour demande"})
		return
	}

	// le client est prévenu du traitement, best-effort
	if updated, err := h.store.FindByID(c.Request.Context(), id); err == nil {
		if err := h.outbox.ServiceRequestUpdated(c.Request.Context(), updated); err != nil {
			log.Printf("⚠️ Notification demande SAV %s: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id.String(), "status": req.Status})
}
