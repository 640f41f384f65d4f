package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageFirestore = "firestore"
	StorageMemory    = "memory"

	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string

	// Service account credentials, JSON takes precedence over the file path
	ServiceAccountJSON string
	ServiceAccountPath string

	StorageDriver string
	AuthProvider  string

	JWTSecret string
	JWTExpiry int64

	AllowedOrigins []string

	TypingTTL             time.Duration
	WSSendBuffer          int
	NotificationListLimit int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		FirebaseProject:       getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:    getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:    getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageDriver:         strings.ToLower(getEnv("STORAGE_DRIVER", StorageFirestore)),
		AuthProvider:          strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderJWT)),
		JWTSecret:             getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:             getEnvAsInt64("JWT_EXPIRY", 30*24*60*60), // 30 days
		AllowedOrigins:        getEnvAsList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		TypingTTL:             getEnvAsDuration("TYPING_TTL", 5*time.Second),
		WSSendBuffer:          int(getEnvAsInt64("WS_SEND_BUFFER", 256)),
		NotificationListLimit: int(getEnvAsInt64("NOTIFICATION_LIST_LIMIT", 50)),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
