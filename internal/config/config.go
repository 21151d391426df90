package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Paystack PaystackConfig
	Email    EmailConfig
	Tickets  TicketsConfig
	Ledger   LedgerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	LogDir   string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PaystackConfig struct {
	SecretKey  string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

type TicketsConfig struct {
	Dir                      string
	ImageMode                string
	MaxPerSale               int
	RejectDuplicateReference bool
}

type LedgerConfig struct {
	Driver    string
	DSN       string
	SalesFile string
}

type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	SalesTopic string
	Enabled    bool
}

const (
	ImageModeDisk   = "disk"
	ImageModeMemory = "memory"

	LedgerDriverJSON     = "json"
	LedgerDriverSQLite   = "sqlite"
	LedgerDriverPostgres = "postgres"
)

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Paystack: PaystackConfig{
			SecretKey:  getEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:    strings.TrimRight(getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
			Timeout:    getEnvDuration("PAYSTACK_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvInt("PAYSTACK_MAX_RETRIES", 3),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SENDER_EMAIL", ""),
			SMTPPassword: getEnv("APP_PASSWORD", ""),
		},
		Tickets: TicketsConfig{
			Dir:                      getEnv("TICKETS_DIR", "tickets"),
			ImageMode:                strings.ToLower(getEnv("TICKET_IMAGE_MODE", ImageModeDisk)),
			MaxPerSale:               getEnvInt("MAX_TICKETS_PER_SALE", 10),
			RejectDuplicateReference: getEnvBool("REJECT_DUPLICATE_REFERENCE", true),
		},
		Ledger: LedgerConfig{
			Driver:    strings.ToLower(getEnv("LEDGER_DRIVER", LedgerDriverJSON)),
			DSN:       getEnv("LEDGER_DSN", ""),
			SalesFile: getEnv("SALES_FILE", "sales.json"),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", ""),
			LockTTL: getEnvDuration("LOCK_TTL", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			SalesTopic: getEnv("KAFKA_TOPIC_SALES", "ticketly.sales.recorded"),
			Enabled:    getEnvBool("KAFKA_ENABLED", false),
		},
		LogDir: getEnv("LOG_DIR", "logs"),
	}
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

// LedgerDSN returns LEDGER_DSN, or for sqlite a database file under the
// tickets directory when none is set.
func (c *Config) LedgerDSN() string {
	if c.Ledger.DSN != "" || c.Ledger.Driver != LedgerDriverSQLite {
		return c.Ledger.DSN
	}
	return "file:" + filepath.Join(c.Tickets.Dir, "sales.db") + "?cache=shared"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
