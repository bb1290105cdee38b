package storefront

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/store"
	"fusionmarkt_backend/internal/utils"
)

// AuthHandler : inscription et connexion des clients.
type AuthHandler struct {
	users *store.UsersStore
}

func NewAuthHandler(users *store.UsersStore) *AuthHandler {
	return &AuthHandler{users: users}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Hash mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hash,
		Role:     "customer",
		IsActive: true,
	}
	if err := h.users.CreateUser(c.Request.Context(), &user); err != nil {
		if strings.Contains(err.Error(), "déjà utilisé") {
			c.JSON(http.StatusConflict, gin.H{"error": "Cet email est déjà utilisé"})
			return
		}
		log.Printf("❌ Création utilisateur: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		log.Printf("❌ Génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	log.Printf("✅ Nouveau compte: %s", user.Email)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email et mot de passe requis"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, store.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}
	if err != nil {
		log.Printf("❌ Lecture utilisateur: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion"})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	token, err := utils.GenerateJWT(*user)
	if err != nil {
		log.Printf("❌ Génération JWT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
