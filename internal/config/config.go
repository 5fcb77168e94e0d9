package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/techmart/internal/pricing"
	"github.com/fjod/techmart/internal/promo"
	"github.com/fjod/techmart/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	CatalogFile = "file"
	CatalogHTTP = "http"
)

type Config struct {
	Environment string
	LogLevel    string

	HTTP     HTTPConfig
	Storage  storage.Options
	Pricing  pricing.Policy
	Promos   map[string]int
	Catalog  CatalogConfig
	Kafka    KafkaConfig
	Checkout CheckoutConfig

	BcryptCost int
}

type HTTPConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type CatalogConfig struct {
	Source  string
	Dir     string
	BaseURL string
	TTL     time.Duration
	Timeout time.Duration
}

// KafkaConfig is disabled when Brokers is empty; order events then stay in the outbox.
type KafkaConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	OutboxInterval time.Duration
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type CheckoutConfig struct {
	SessionTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("STORAGE_DRIVER", storage.DriverSQLite)
	v.SetDefault("STORAGE_NAMESPACE", "default")
	v.SetDefault("SQLITE_PATH", "techmart.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "techmart")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "techmart")

	v.SetDefault("TAX_RATE", "0.08")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", "100")
	v.SetDefault("SHIPPING_COST", "10")

	v.SetDefault("CATALOG_SOURCE", CatalogFile)
	v.SetDefault("CATALOG_DIR", "data")
	v.SetDefault("CATALOG_TTL", "0s")
	v.SetDefault("CATALOG_TIMEOUT", "5s")

	v.SetDefault("KAFKA_TOPIC", "storefront.orders")
	v.SetDefault("KAFKA_GROUP_ID", "storefront-events")
	v.SetDefault("OUTBOX_INTERVAL", "1s")

	v.SetDefault("CHECKOUT_SESSION_TTL", "30m")
	v.SetDefault("BCRYPT_COST", 10)
}

// Load reads the environment, then an optional .env file in the working
// directory or its parents, applies defaults and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds the config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var errs []error
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	money := func(key string) decimal.Decimal {
		d, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Addr:            v.GetString("HTTP_ADDR"),
			RequestTimeout:  duration("HTTP_REQUEST_TIMEOUT"),
			ShutdownTimeout: duration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		Storage: storage.Options{
			Driver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Namespace:  v.GetString("STORAGE_NAMESPACE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
			Postgres: storage.Credentials{
				Host:     v.GetString("DB_HOST"),
				Port:     v.GetInt("DB_PORT"),
				User:     v.GetString("DB_USER"),
				Password: v.GetString("DB_PASSWORD"),
				DBName:   v.GetString("DB_NAME"),
				SSLMode:  v.GetString("DB_SSLMODE"),
			},
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
		},
		Pricing: pricing.Policy{
			TaxRate:               money("TAX_RATE"),
			FreeShippingThreshold: money("FREE_SHIPPING_THRESHOLD"),
			ShippingCost:          money("SHIPPING_COST"),
		},
		Catalog: CatalogConfig{
			Source:  strings.ToLower(v.GetString("CATALOG_SOURCE")),
			Dir:     v.GetString("CATALOG_DIR"),
			BaseURL: v.GetString("CATALOG_BASE_URL"),
			TTL:     duration("CATALOG_TTL"),
			Timeout: duration("CATALOG_TIMEOUT"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(v.GetString("KAFKA_BROKERS")),
			Topic:          v.GetString("KAFKA_TOPIC"),
			GroupID:        v.GetString("KAFKA_GROUP_ID"),
			OutboxInterval: duration("OUTBOX_INTERVAL"),
		},
		Checkout: CheckoutConfig{
			SessionTTL: duration("CHECKOUT_SESSION_TTL"),
		},
		BcryptCost: v.GetInt("BCRYPT_COST"),
	}

	promos, err := ParsePromoCodes(v.GetString("PROMO_CODES"))
	if err != nil {
		errs = append(errs, fmt.Errorf("PROMO_CODES: %w", err))
	}
	cfg.Promos = promos

	errs = append(errs, cfg.validate()...)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if err := c.Pricing.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverSQLite, storage.DriverPostgres, storage.DriverRedis, storage.DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver))
	}
	if c.Storage.Namespace == "" {
		errs = append(errs, errors.New("STORAGE_NAMESPACE is required"))
	}
	switch c.Catalog.Source {
	case CatalogFile:
	case CatalogHTTP:
		if c.Catalog.BaseURL == "" {
			errs = append(errs, errors.New("CATALOG_BASE_URL is required when CATALOG_SOURCE=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE %q is not supported", c.Catalog.Source))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d outside 4..31", c.BcryptCost))
	}
	return errs
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParsePromoCodes reads "CODE:percent,CODE:percent". An empty string yields
// the built-in table.
func ParsePromoCodes(raw string) (map[string]int, error) {
	if strings.TrimSpace(raw) == "" {
		return promo.DefaultCodes(), nil
	}

	codes := make(map[string]int)
	for _, pair := range splitList(raw) {
		code, pct, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q is not CODE:percent", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", pair, err)
		}
		codes[promo.Normalize(code)] = n
	}
	// range checks live in NewEngine
	if _, err := promo.NewEngine(codes); err != nil {
		return nil, err
	}
	return codes, nil
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
