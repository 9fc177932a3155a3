package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int
	CORSOrigins string
	TablePrefix string
	AutoMigrate bool
	// Identity provider
	AuthJWKSURL  string
	AuthIssuer   string // optional, enforced when set
	AuthAudience string // optional, enforced when set
	// Object storage (S3-compatible)
	S3Bucket         string
	S3Region         string
	S3Endpoint       string // empty = AWS default endpoint
	S3AccessKey      string
	S3SecretKey      string
	S3PublicBaseURL  string // base for storage_url; defaults to endpoint/bucket
	S3UsePathStyle   bool
	StorageKeyPrefix string
	// Logging
	LogDir      string // empty = stdout only
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBMaxConns:       getEnvInt("DB_MAX_CONNS", 25),
		DBMinConns:       getEnvInt("DB_MIN_CONNS", 5),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:      getTablePrefix(env),
		AutoMigrate:      getEnv("AUTO_MIGRATE", "true") == "true",
		AuthJWKSURL:      getEnv("AUTH_JWKS_URL", ""),
		AuthIssuer:       getEnv("AUTH_ISSUER", ""),
		AuthAudience:     getEnv("AUTH_AUDIENCE", ""),
		S3Bucket:         getEnv("S3_BUCKET", "droply"),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3PublicBaseURL:  getEnv("S3_PUBLIC_BASE_URL", ""),
		S3UsePathStyle:   getEnv("S3_USE_PATH_STYLE", "false") == "true",
		StorageKeyPrefix: getEnv("STORAGE_KEY_PREFIX", "droply"),
		LogDir:           getEnv("LOG_DIR", ""),
		LogMaxFiles:      getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
