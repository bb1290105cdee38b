package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"fusionmarkt_backend/internal/notify"
	"fusionmarkt_backend/internal/payment/iyzico"
)

func Load() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// IyzicoConfig lit la configuration passerelle. IYZICO_ENABLED=false coupe
// tous les appels sortants (environnements de dev/test).
func IyzicoConfig() iyzico.Config {
	baseURL := os.Getenv("IYZICO_BASE_URL")
	if baseURL == "" {
		baseURL = "https://sandbox-api.iyzipay.com"
	}
	return iyzico.Config{
		BaseURL:   baseURL,
		APIKey:    os.Getenv("IYZICO_API_KEY"),
		SecretKey: os.Getenv("IYZICO_SECRET_KEY"),
		Enabled:   os.Getenv("IYZICO_ENABLED") == "true",
	}
}

func MailerConfig() notify.MailerConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return notify.MailerConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func KafkaBrokers() []string {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// FreeShippingThreshold : seuil de gratuité global (0 = désactivé).
func FreeShippingThreshold() float64 {
	v, err := strconv.ParseFloat(os.Getenv("FREE_SHIPPING_THRESHOLD"), 64)
	if err != nil {
		return 0
	}
	return v
}

// DefaultShippingCost : tarif appliqué quand aucune règle ne correspond.
func DefaultShippingCost() float64 {
	v, err := strconv.ParseFloat(os.Getenv("DEFAULT_SHIPPING_COST"), 64)
	if err != nil {
		return 29.90
	}
	return v
}
