// Package config loads the application configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	// Database. When DBHost is set, PostgreSQL is used; otherwise the
	// backend runs on a local sqlite database at DBPath.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	// Secret used to verify bearer tokens.
	JWTSecret string

	// Address for the HTTP server, in the form accepted by gin.Engine.Run.
	ListenAddress string
}

var AppConfig Config

// Load reads an optional .env file and populates AppConfig.
func Load() {
	// A missing .env file is fine, the environment may be set directly.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded configuration from .env")
	}

	AppConfig = Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        getEnv("DB_NAME", "sitedesk"),
		DBPath:        getEnv("DB_PATH", "data/sitedesk.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ListenAddress: getEnv("LISTEN_ADDRESS", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
