package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

// Upstream points at the storefront backend that owns products, customers
// and orders. The cart service proxies catalog reads and order submissions
// to it.
type Upstream struct {
	BaseURL string        `yaml:"BACKEND_URL" env:"BACKEND_URL" env-required:"true"`
	Timeout time.Duration `yaml:"BACKEND_TIMEOUT" env:"BACKEND_TIMEOUT" env-default:"10s"`
}

type Database struct {
	Enabled         bool          `yaml:"PG_ENABLED" env:"PG_ENABLED" env-default:"false"`
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-default:""`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-default:""`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-default:""`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"PG_MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"PG_MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"PG_CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
}

type RedisConnect struct {
	Enabled  bool   `yaml:"REDIS_ENABLED" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string `yaml:"REDIS_ADDR" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// SessionConfig governs how long an untouched guest cart survives in the
// redis store. The memory store ignores it (carts there live until the
// process exits, matching the prototype this replaces).
type SessionConfig struct {
	TTL time.Duration `yaml:"SESSION_TTL" env:"SESSION_TTL" env-default:"72h"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"CACHE_TTL" env:"CACHE_TTL" env-default:"5m"`
}

type Telemetry struct {
	Enabled  bool   `yaml:"OTEL_ENABLED" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint string `yaml:"OTEL_EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT" env-default:"localhost:4318"`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-default:""`
}

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"development"`
	HTTPServer `yaml:"http_server"`
	// ProductSource selects where add-to-cart resolves products from:
	// "backend" (catalog proxy) or "database" (direct Postgres lookup).
	ProductSource string        `yaml:"PRODUCT_SOURCE" env:"PRODUCT_SOURCE" env-default:"backend"`
	Upstream      Upstream      `yaml:"upstream"`
	Database      Database      `yaml:"database"`
	RedisConnect  RedisConnect  `yaml:"redis"`
	Session       SessionConfig `yaml:"session"`
	Cache         CacheConfig   `yaml:"cache"`
	Telemetry     Telemetry     `yaml:"telemetry"`
	Security      Security      `yaml:"security"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "path to the config file")

		flag.Parse()

		configPath = *flags
	}

	var cfg Config

	if configPath == "" {
		// No file: environment variables only.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("can not read config from environment: %s", err.Error())
		}

		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return &cfg
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://:%s@%s/%d", r.Password, r.Addr, r.DB)
}
