package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	// Backend API
	APIBaseURL  string
	HTTPTimeout time.Duration
	UserAgent   string

	// Search form bounds
	QuantityMin int
	QuantityMax int

	// Session persistence
	SessionStore  string
	SessionFile   string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Export destinations
	ExportDir      string
	ExportS3Bucket string
	ExportS3Prefix string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	PushgatewayURL string

	// Demo backend
	DemoAddr           string
	DemoJWTSecret      string
	DemoAllowedOrigins []string
	DemoContactRate    float64
	DemoContactBurst   int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment values win.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile applies the given dotenv file before reading the environment.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv reads configuration from the process environment only.
func FromEnv() *Config {
	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "console"))),

		APIBaseURL:  strings.TrimRight(getEnv("LEADHUNTER_API_URL", "http://localhost:8000"), "/"),
		HTTPTimeout: getEnvAsDuration("LEADHUNTER_HTTP_TIMEOUT", 0),
		UserAgent:   getEnv("LEADHUNTER_USER_AGENT", "leadhunter-cli/0.1"),

		QuantityMin: getEnvAsInt("QUANTITY_MIN", 10),
		QuantityMax: getEnvAsInt("QUANTITY_MAX", 300),

		SessionStore:  strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "file"))),
		SessionFile:   getEnv("SESSION_FILE", defaultSessionFile()),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 0),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ExportDir:      getEnv("EXPORT_DIR", "."),
		ExportS3Bucket: getEnv("EXPORT_S3_BUCKET", ""),
		ExportS3Prefix: getEnv("EXPORT_S3_PREFIX", "exports/"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),

		DemoAddr:           getEnv("DEMO_ADDR", ":8000"),
		DemoJWTSecret:      getEnv("DEMO_JWT_SECRET", "leadhunter-demo-secret"),
		DemoAllowedOrigins: getEnvAsList("DEMO_ALLOWED_ORIGINS", []string{"http://localhost:8080", "http://127.0.0.1:8080"}),
		DemoContactRate:    getEnvAsFloat("DEMO_CONTACT_RATE", 0.2),
		DemoContactBurst:   getEnvAsInt("DEMO_CONTACT_BURST", 5),
	}
	if cfg.QuantityMin > cfg.QuantityMax {
		cfg.QuantityMin, cfg.QuantityMax = cfg.QuantityMax, cfg.QuantityMin
	}
	return cfg
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".leadhunter-session.json"
	}
	return filepath.Join(dir, "leadhunter", "session.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
