// Package config loads service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to boot.
type Config struct {
	ListenAddr string
	DBDSN      string

	JWTSecret            string
	TokenExpirationHours int
	AuthScheme           string
	ContextKey           string

	S3Region       string
	S3Bucket       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	AvatarURLHours int
}

// Load reads the environment. A missing .env file is not an error,
// deployments usually inject variables directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":9292"),
		DBDSN:      getEnv("DB_DSN", "file:staff.db?cache=shared&mode=rwc"),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		TokenExpirationHours: getEnvAsInt("TOKEN_EXPIRATION_HOURS", 0),
		AuthScheme:           getEnv("AUTH_SCHEME", "Bearer"),
		ContextKey:           getEnv("AUTH_CONTEXT_KEY", "current_user"),

		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		AvatarURLHours: getEnvAsInt("AVATAR_URL_HOURS", 1),
	}

	return cfg, nil
}

func (c *Config) GetSigningKey() string { return c.JWTSecret }

func (c *Config) GetSigningMethod() string { return "HS256" }

func (c *Config) GetContextKey() string { return c.ContextKey }

func (c *Config) GetTokenExpiration() int { return c.TokenExpirationHours }

func (c *Config) GetAuthScheme() string { return c.AuthScheme }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
