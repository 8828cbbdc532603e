package config

import (
	"os"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Google   GoogleConfig
	Auth     AuthConfig
	AI       AIConfig
}

type ServerConfig struct {
	Port           string
	ClientURL      string
	AllowedOrigins []string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type AuthConfig struct {
	JWTSecret    string
	JWTAccessTTL string
	JWTStateTTL  string
}

type AIConfig struct {
	APIKey string
	Model  string
}

func Load() Config {
	serverURL := getenv("SERVER_URL", "http://localhost:8000")
	clientURL := getenv("CLIENT_URL", "http://localhost:3000")

	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "8000"),
			ClientURL:      clientURL,
			AllowedOrigins: splitOrigins(getenv("ALLOWED_ORIGINS", clientURL)),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  getenv("GOOGLE_CALLBACK_URL", serverURL+"/api/auth/google/callback"),
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			JWTAccessTTL: getenv("JWT_ACCESS_TTL", "15m"),
			JWTStateTTL:  getenv("JWT_STATE_TTL", "10m"),
		},
		AI: AIConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getenv("GEMINI_MODEL", "gemini-1.5-pro"),
		},
	}
}

func splitOrigins(value string) []string {
	parts := strings.Split(value, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
