package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the server configuration, loaded from the environment.
type Config struct {
	Port          string
	DBPath        string
	TemplateDir   string
	StaticDir     string
	SecureCookies bool

	// Optional bootstrap account created at startup when all three are set.
	AdminUser     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from a .env file (if present) and the
// environment. Missing keys fall back to defaults suitable for local use.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file, using environment variables: %v", err)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "finance.db"),
		TemplateDir:   getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:     getEnv("STATIC_DIR", "web/static"),
		SecureCookies: getEnv("SECURE_COOKIES", "") == "true",
		AdminUser:     getEnv("ADMIN_USER", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
