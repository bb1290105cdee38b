package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/store"
)

// UserHandler : gestion des comptes côté back-office.
type UserHandler struct {
	store *store.UsersStore
}

func NewUserHandler(st *store.UsersStore) *UserHandler {
	return &UserHandler{store: st}
}

// GET /api/admin/users?limit=200
func (h *UserHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 200
	}

	users, err := h.store.ListUsers(c.Request.Context(), limit)
	if err != nil {
		log.Printf("❌ Listing utilisateurs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateurs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// PUT /api/admin/users/:id : rôle et/ou désactivation du compte.
func (h *UserHandler) UpdateAccess(c *gin.Context) {
	var req struct {
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if req.Role == nil && req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun champ à modifier"})
		return
	}
	if req.Role != nil && *req.Role != "admin" && *req.Role != "customer" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rôle inconnu"})
		return
	}

	id := c.Param("id")
	// un admin ne peut pas se retirer ses propres droits
	if selfID, ok := c.Get("user_id"); ok && selfID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Impossible de modifier son propre compte"})
		return
	}

	u, err := h.store.UpdateAccess(c.Request.Context(), id, req.Role, req.IsActive)
	if errors.Is(err, store.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Mise à jour accès %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour utilisateur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}
