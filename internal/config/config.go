// Package config loads the menu service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"

	OrdersMemory   = "memory"
	OrdersPostgres = "postgres"

	KitchenLocal = "local"
	KitchenHTTP  = "http"
	KitchenKafka = "kafka"
)

type Config struct {
	ServiceName string
	Env         string
	LogFile     string

	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	CartStorage   string
	CartTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDBName   string
	MongoMaxPool  int
	MongoMinPool  int
	MongoTimeout  time.Duration

	CatalogDBPath string

	OrderStore string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	KitchenMode     string
	KitchenURL      string
	KitchenTimeout  time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string
	KitchenConsumer bool

	SubmitTimeout      time.Duration
	ResetTableOnSubmit bool
	MaxTerminals       int
	MaxLineQuantity    int

	StaffFile  string
	SessionTTL time.Duration
}

// Load reads the configuration. Malformed durations or flags are errors,
// missing values fall back to defaults.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "menu-service"),
		Env:         getEnv("ENV", "dev"),
		LogFile:     os.Getenv("LOG_FILE"),

		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     durationEnv("REQUEST_TIMEOUT", 30*time.Second, &errs),
		ShutdownTimeout:    durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		MaxRequestBodySize: 1 << 20, // 1MB

		CartStorage:   strings.ToLower(getEnv("CART_STORAGE", StorageMemory)),
		CartTTL:       durationEnv("CART_TTL", 0, &errs),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "menu"),
		MongoMaxPool:  intEnv("MONGO_MAX_POOL", 50, &errs),
		MongoMinPool:  intEnv("MONGO_MIN_POOL", 2, &errs),
		MongoTimeout:  durationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second, &errs),

		CatalogDBPath: getEnv("CATALOG_DB_PATH", "./data/catalog.db"),

		OrderStore: strings.ToLower(getEnv("ORDER_STORE", OrdersMemory)),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     intEnv("DB_PORT", 5432, &errs),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "menu"),

		KitchenMode:     strings.ToLower(getEnv("KITCHEN_MODE", KitchenLocal)),
		KitchenURL:      os.Getenv("KITCHEN_URL"),
		KitchenTimeout:  durationEnv("KITCHEN_TIMEOUT", 5*time.Second, &errs),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "kitchen-orders"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "menu-kitchen"),
		KitchenConsumer: boolEnv("KITCHEN_CONSUMER", false, &errs),

		SubmitTimeout:      durationEnv("CHECKOUT_SUBMIT_TIMEOUT", 10*time.Second, &errs),
		ResetTableOnSubmit: boolEnv("CHECKOUT_RESET_TABLE", false, &errs),
		MaxTerminals:       intEnv("MAX_TERMINALS", 256, &errs),
		MaxLineQuantity:    intEnv("MAX_LINE_QUANTITY", 99, &errs),

		StaffFile:  os.Getenv("STAFF_FILE"),
		SessionTTL: durationEnv("SESSION_TTL", 12*time.Hour, &errs),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.CartStorage {
	case StorageMemory, StorageRedis, StorageMongo:
	default:
		errs = append(errs, fmt.Errorf("CART_STORAGE: unknown backend %q", c.CartStorage))
	}
	switch c.OrderStore {
	case OrdersMemory, OrdersPostgres:
	default:
		errs = append(errs, fmt.Errorf("ORDER_STORE: unknown backend %q", c.OrderStore))
	}
	switch c.KitchenMode {
	case KitchenLocal:
	case KitchenHTTP:
		if c.KitchenURL == "" {
			errs = append(errs, errors.New("KITCHEN_URL is required when KITCHEN_MODE=http"))
		}
	case KitchenKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when KITCHEN_MODE=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("KITCHEN_MODE: unknown mode %q", c.KitchenMode))
	}
	if c.KitchenConsumer && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KITCHEN_CONSUMER=true"))
	}
	if c.MongoMaxPool < 0 || c.MongoMinPool < 0 || c.MongoMinPool > c.MongoMaxPool {
		errs = append(errs, fmt.Errorf("MONGO_MIN_POOL %d and MONGO_MAX_POOL %d must satisfy 0 <= min <= max", c.MongoMinPool, c.MongoMaxPool))
	}
	if c.MaxTerminals <= 0 {
		errs = append(errs, errors.New("MAX_TERMINALS must be positive"))
	}
	if c.SubmitTimeout <= 0 {
		errs = append(errs, errors.New("CHECKOUT_SUBMIT_TIMEOUT must be positive"))
	}
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}

	return errors.Join(errs...)
}

// LocalKitchen reports whether this process hosts the kitchen endpoints.
func (c *Config) LocalKitchen() bool {
	return c.KitchenMode == KitchenLocal || c.KitchenConsumer
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, defaultValue time.Duration, errs *[]error) time.Duration {
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

func intEnv(key string, defaultValue int, errs *[]error) int {
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

func boolEnv(key string, defaultValue bool, errs *[]error) bool {
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
