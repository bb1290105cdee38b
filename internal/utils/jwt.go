package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fusionmarkt_backend/internal/models"
)

// GenerateJWT émet un token HS256 de 24h portant l'identité et le rôle.
func GenerateJWT(user models.User) (string, error) {
	secret := os.Getenv("JWT_SECRET")

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
