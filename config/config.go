package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	APP_ENV     string
	LOG_LEVEL   string

	// SITE_API_KEY is the public key browsers send in the "apikey" header.
	// Empty disables the check.
	SITE_API_KEY string

	REDIS_URL        string
	EDIT_SESSION_TTL time.Duration

	S3_BUCKET            string
	S3_REGION            string
	S3_ENDPOINT          string
	S3_ACCESS_KEY_ID     string
	S3_SECRET_ACCESS_KEY string
	S3_PUBLIC_BASE_URL   string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:5173")
	APP_ENV = getEnv("APP_ENV", "development")
	LOG_LEVEL = getEnv("LOG_LEVEL", "info")

	SITE_API_KEY = getEnv("SITE_API_KEY", "")

	REDIS_URL = getEnv("REDIS_URL", "")
	EDIT_SESSION_TTL = getDuration("EDIT_SESSION_TTL", 2*time.Hour)

	S3_BUCKET = getEnv("S3_BUCKET", "")
	S3_REGION = getEnv("S3_REGION", "us-east-1")
	S3_ENDPOINT = getEnv("S3_ENDPOINT", "")
	S3_ACCESS_KEY_ID = getEnv("S3_ACCESS_KEY_ID", "")
	S3_SECRET_ACCESS_KEY = getEnv("S3_SECRET_ACCESS_KEY", "")
	S3_PUBLIC_BASE_URL = strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/")

	// Google sign-in is optional for members
	GOOGLE_CLIENT_ID = getEnv("GOOGLE_CLIENT_ID", "")
	GOOGLE_CLIENT_SECRET = getEnv("GOOGLE_CLIENT_SECRET", "")
	GOOGLE_REDIRECT_URL = getEnv("GOOGLE_REDIRECT_URL", "")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")
}

func IsProduction() bool {
	return APP_ENV == "production"
}

func GoogleEnabled() bool {
	return GOOGLE_CLIENT_ID != "" && GOOGLE_CLIENT_SECRET != "" && GOOGLE_REDIRECT_URL != ""
}

func UploadsEnabled() bool {
	return S3_BUCKET != "" && S3_ACCESS_KEY_ID != "" && S3_SECRET_ACCESS_KEY != ""
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration for %s (%q), using %s", key, raw, fallback)
		return fallback
	}
	return d
}
