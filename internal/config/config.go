package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Record store drivers.
const (
	DriverJSONServer = "jsonserver"
	DriverPostgres   = "postgres"
)

const megabyte = 1 << 20

type Config struct {
	Env        string           // Env is the current environment: local, development, production.
	HTTP       HTTPConfig       // HTTP holds the public API server configuration.
	Monitoring MonitoringConfig // Monitoring holds the metrics and health server configuration.
	Store      StoreConfig      // Store selects and configures the record store.
	Postgres   PostgresConfig   // Postgres holds the database configuration, used by the postgres driver.
	RateLimit  RateLimitConfig  // RateLimit configures the optional inbound rate limiter.
}

// HTTPConfig holds the public API server settings.
type HTTPConfig struct {
	Port            int           // Port is the port the API listens on.
	RequestTimeout  time.Duration // RequestTimeout bounds a single request; exceeding it yields 408.
	ShutdownTimeout time.Duration // ShutdownTimeout bounds the graceful shutdown.
	BodyLimit       int64         // BodyLimit is the maximum accepted request body in bytes.
	CORSOrigin      string        // CORSOrigin is the allowed cross-origin source.
}

// MonitoringConfig holds the monitoring server settings.
type MonitoringConfig struct {
	Port int // Port is the port serving /metrics and /healthz.
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver  string        // Driver is either jsonserver or postgres.
	URL     string        // URL is the base URL of the JSON document store.
	Timeout time.Duration // Timeout bounds a single document store request.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Dbname   string // Dbname is the name of the database.
}

// RateLimitConfig configures the inbound rate limiter.
type RateLimitConfig struct {
	Enabled bool   // Enabled switches the limiter on.
	Rate    string // Rate uses the "<limit>-<period>" format, e.g. 1000-M.
}

var envBindings = map[string]string{
	"env":                   "ATHENA_ENV",
	"http.port":             "PORT",
	"http.request_timeout":  "HTTP_REQUEST_TIMEOUT",
	"http.shutdown_timeout": "HTTP_SHUTDOWN_TIMEOUT",
	"http.body_limit":       "HTTP_BODY_LIMIT",
	"http.cors_origin":      "CORS_ORIGIN",
	"monitoring.port":       "MONITORING_PORT",
	"store.driver":          "STORE_DRIVER",
	"store.url":             "JSON_SERVER_URL",
	"store.timeout":         "STORE_TIMEOUT",
	"postgres.host":         "DB_HOST",
	"postgres.port":         "DB_PORT",
	"postgres.user":         "DB_USERNAME",
	"postgres.password":     "DB_PASSWORD",
	"postgres.db_name":      "DB_NAME",
	"rate_limit.enabled":    "RATE_LIMIT_ENABLED",
	"rate_limit.rate":       "RATE_LIMIT_RATE",
}

// MustLoad loads the configuration from the environment, an optional .env file and an optional
// YAML file at CONFIG_PATH, and returns a Config struct. It panics on invalid values.
func MustLoad() *Config {
	// A missing .env file is fine; real environment variables take precedence over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("failed to load .env file: " + err.Error())
	}

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			panic("config error: " + err.Error())
		}
	}

	cfg := &Config{
		Env: v.GetString("env"),
		HTTP: HTTPConfig{
			Port:            v.GetInt("http.port"),
			RequestTimeout:  mustDuration(v, "http.request_timeout"),
			ShutdownTimeout: mustDuration(v, "http.shutdown_timeout"),
			BodyLimit:       v.GetInt64("http.body_limit"),
			CORSOrigin:      v.GetString("http.cors_origin"),
		},
		Monitoring: MonitoringConfig{
			Port: v.GetInt("monitoring.port"),
		},
		Store: StoreConfig{
			Driver:  v.GetString("store.driver"),
			URL:     v.GetString("store.url"),
			Timeout: mustDuration(v, "store.timeout"),
		},
		Postgres: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Dbname:   v.GetString("postgres.db_name"),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("rate_limit.enabled"),
			Rate:    v.GetString("rate_limit.rate"),
		},
	}

	if err := cfg.validate(); err != nil {
		panic(err.Error())
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("http.port", 3000) //nolint:mnd // default API port
	v.SetDefault("http.request_timeout", "30s")
	v.SetDefault("http.shutdown_timeout", "30s")
	v.SetDefault("http.body_limit", 10*megabyte) //nolint:mnd // 10 MiB JSON body limit
	v.SetDefault("http.cors_origin", "*")
	v.SetDefault("monitoring.port", 8080) //nolint:mnd // default monitoring port
	v.SetDefault("store.driver", DriverJSONServer)
	v.SetDefault("store.url", "http://localhost:3001")
	v.SetDefault("store.timeout", "10s")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rate", "1000-M")
}

func mustDuration(v *viper.Viper, key string) time.Duration {
	duration, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s from configuration", key))
	}

	return duration
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverJSONServer:
		if c.Store.URL == "" {
			return errors.New("store url is required for the jsonserver driver")
		}
	case DriverPostgres:
		if c.Postgres.Host == "" || c.Postgres.Dbname == "" {
			return errors.New("postgres host and database name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.HTTP.BodyLimit <= 0 {
		return errors.New("body limit must be positive")
	}

	if c.RateLimit.Enabled {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit.Rate); err != nil {
			return fmt.Errorf("invalid rate limit %q: %w", c.RateLimit.Rate, err)
		}
	}

	return nil
}
