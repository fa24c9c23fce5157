package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Secrets never need to live in config.yml; these variables win over file values.
const (
	EnvJWTSecret           = "LOGOFORGE_JWT_SECRET"
	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvImageAPIKey         = "IMAGE_API_KEY"
	EnvChatAPIKey          = "CHAT_API_KEY"
	EnvS3AccessKey         = "S3_ACCESS_KEY"
	EnvS3SecretKey         = "S3_SECRET_KEY"
)

// loadDotEnv loads a .env file next to the config file when one exists.
// Variables already present in the process environment are not overwritten.
func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %q: %w", envPath, err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load env file %q: %w", envPath, err)
	}
	return nil
}

func applyEnvOverrides(cfg *AppConfig) {
	override := func(target *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
	override(&cfg.JWTSecret, EnvJWTSecret)
	override(&cfg.Stripe.SecretKey, EnvStripeSecretKey)
	override(&cfg.Stripe.WebhookSecret, EnvStripeWebhookSecret)
	override(&cfg.Image.APIKey, EnvImageAPIKey)
	override(&cfg.Chat.APIKey, EnvChatAPIKey)
	override(&cfg.Storage.AccessKey, EnvS3AccessKey)
	override(&cfg.Storage.SecretKey, EnvS3SecretKey)
}
