package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string // development, staging, production
	DBDriver string // postgres, mysql, sqlite
	DBDSN    string // overrides the DB_* parts when set
	DBHost   string
	DBUser   string
	DBPass   string
	DBName   string
	DBPort   string
	JWTKey   string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayApiURL    string
	PaymentCurrency   string
	PaymentTimeout    time.Duration
	AllowMockPayments bool // never honoured in production
	IntentTTL         time.Duration

	RedisAddr string

	SendgridApiKey string
	EmailSender    string

	ReconcileCron string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      strings.ToLower(getEnv("APP_ENV", "development")),
		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:    getEnv("DB_DSN", ""),
		DBHost:   getEnv("DB_HOST", "localhost"),
		DBUser:   getEnv("DB_USER", "postgres"),
		DBPass:   getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "learnhub"),
		DBPort:   getEnv("DB_PORT", "5432"),
		JWTKey:   getEnv("JWT_SECRET_KEY", "defaultSecret"),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayApiURL:    getEnv("RAZORPAY_API_URL", "https://api.razorpay.com/v1"),
		PaymentCurrency:   getEnv("PAYMENT_CURRENCY", "INR"),
		PaymentTimeout:    getEnvDuration("PAYMENT_TIMEOUT", 10*time.Second),
		AllowMockPayments: getEnvBool("ALLOW_MOCK_PAYMENTS", false),
		IntentTTL:         getEnvDuration("INTENT_TTL", 24*time.Hour),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@learnhub.local"),

		ReconcileCron: getEnv("RECONCILE_CRON", "*/5 * * * *"),
	}

	AppConfig.validate()
}

func (c *Config) validate() {
	if c.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if c.RazorpayKeySecret == "" {
		log.Println("Warning: RAZORPAY_KEY_SECRET is empty. Paid enrollments cannot be verified.")
	}
	if c.IsProduction() && c.AllowMockPayments {
		log.Println("Warning: ALLOW_MOCK_PAYMENTS is ignored in production.")
		c.AllowMockPayments = false
	}
}

// IsProduction reports whether the service runs with production guarantees
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// IsDevelopment gates verbose error details in API responses
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// MockPaymentsEnabled is the only switch that makes mock intents reachable
func (c *Config) MockPaymentsEnabled() bool {
	return c.AllowMockPayments && !c.IsProduction()
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
