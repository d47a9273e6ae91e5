package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// loadDotEnv sets variables from a dotenv file. Variables already present in
// the environment win.
func loadDotEnv(path string) error {
	return godotenv.Load(path)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.Split(value, ",")
}
