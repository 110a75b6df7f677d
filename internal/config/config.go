package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StoreMemory    = "memory"

	IdentityFirebase = "firebase"
	IdentityLocal    = "local"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort           string
	SearchAPIPort      string
	SearchAPIURL       string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	CORSAllowOrigins   []string

	StoreBackend      string
	FirebaseProjectID string
	CredentialsFile   string
	MongoURI          string
	MongoDBName       string

	IdentityProvider string
	JWTSecret        string
	JWTExpiry        time.Duration

	RedisAddr     string
	RedisPassword string

	KafkaBrokers    []string
	CartEventsTopic string

	SendGridAPIKey string
	FeedbackFrom   string
	FeedbackTo     string
	FeedbackDBPath string

	ChromeBin       string
	ScraperPoolSize int
	ScraperHeadless bool
}

// Load reads the given .env files when they exist, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "production"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		SearchAPIPort:      getEnv("SEARCH_API_PORT", "8000"),
		SearchAPIURL:       getEnv("SEARCH_API_URL", "http://localhost:8000"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second, &errs),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		MaxRequestBodySize: 1 << 20, // 1MB
		CORSAllowOrigins:   splitCSV(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),
		FirebaseProjectID:  getEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsFile:    getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "shopnest"),
		IdentityProvider:   strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityFirebase)),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiry:          getDuration("JWT_EXPIRY", 24*time.Hour, &errs),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:       splitCSV(getEnv("KAFKA_BROKERS", "")),
		CartEventsTopic:    getEnv("CART_EVENTS_TOPIC", "cart-events"),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		FeedbackFrom:       getEnv("FEEDBACK_FROM", ""),
		FeedbackTo:         getEnv("FEEDBACK_TO", ""),
		FeedbackDBPath:     getEnv("FEEDBACK_DB_PATH", "feedback.db"),
		ChromeBin:          getEnv("CHROME_BIN", ""),
		ScraperPoolSize:    getInt("SCRAPER_POOL_SIZE", 3, &errs),
		ScraperHeadless:    getBool("SCRAPER_HEADLESS", true, &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the storefront server depends on.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for the firestore backend")
		}
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.IdentityProvider {
	case IdentityFirebase:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for firebase identity")
		}
	case IdentityLocal:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required for local identity")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	return nil
}

func (c *Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
