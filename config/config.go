/*
Package config loads server configuration from the environment.

A .env file in the working directory is loaded first when present, so
local development does not need exported variables. Every value has a
default; the server runs with no configuration at all.
*/
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DBPath       string
	BaseCurrency string

	// HorizonMonths is how far ahead recurring generation materializes.
	HorizonMonths int

	LogLevel string

	CORSOrigins []string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnv("DB_PATH", "ledger.db"),
		BaseCurrency:  getEnv("BASE_CURRENCY", "USD"),
		HorizonMonths: getEnvInt("RECURRING_HORIZON_MONTHS", 1),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins: []string{
			getEnv("CORS_ORIGIN", "http://localhost:5173"),
			"http://localhost:8080",
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
