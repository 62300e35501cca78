package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

const envPrefix = "STOREFRONT"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	DB          DBConfig          `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	GuestCart   GuestCartConfig   `mapstructure:"guest_cart"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Checkout    CheckoutConfig    `mapstructure:"checkout"`
	Payment     PaymentConfig     `mapstructure:"payment"`
	WorkflowLog WorkflowLogConfig `mapstructure:"workflow_log"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Log         LogConfig         `mapstructure:"log"`
	Events      EventsConfig      `mapstructure:"events"`
	Mail        MailConfig        `mapstructure:"mail"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver"`
}

type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type GuestCartConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CheckoutConfig struct {
	Policy string `mapstructure:"policy"`
}

type PaymentConfig struct {
	DevMode bool        `mapstructure:"dev_mode"`
	Mpesa   MpesaConfig `mapstructure:"mpesa"`
	Card    CardConfig  `mapstructure:"card"`
}

type MpesaConfig struct {
	Shortcode string `mapstructure:"shortcode"`
}

type CardConfig struct {
	DeclineNumbers []string `mapstructure:"decline_numbers"`
}

type WorkflowLogConfig struct {
	// Path of the sqlite file. Empty disables the workflow log.
	Path string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type EventsConfig struct {
	// AMQPURL empty keeps events in-process (no-op publisher).
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type MailConfig struct {
	// Host empty disables invoice e-mails.
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("db.dsn", "host=localhost user=mosolar password=mosolar dbname=mosolar port=5432 sslmode=disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("guest_cart.ttl", 7*24*time.Hour)

	v.SetDefault("auth.jwt_secret", "mosolar-development-secret")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("checkout.policy", string(domain.PolicyDropUnavailable))

	v.SetDefault("payment.dev_mode", true)
	v.SetDefault("payment.mpesa.shortcode", "174379")
	v.SetDefault("payment.card.decline_numbers", []string{"4000000000000002"})

	v.SetDefault("workflow_log.path", "data/workflow.db")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "mosolar-storefront")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	v.SetDefault("log.level", "info")

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "mosolar.orders")

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "Mo Solar Technologies <info@mo-solar.co.ke>")
}

// Load reads config.yaml and STOREFRONT_* environment variables. path may
// name a directory to search first or a config file. A missing config file
// is not an error; every key has a default.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	explicit := false
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".yaml" || ext == ".yml":
		v.SetConfigFile(path)
		explicit = true
	default:
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if path != "" {
			v.AddConfigPath(path)
		}
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("./")
		v.AddConfigPath("/etc/mosolar/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of postgres, memory", c.Store.Driver))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 bytes"))
	}
	if _, err := domain.ParseCheckoutPolicy(c.Checkout.Policy); err != nil {
		errs = append(errs, fmt.Errorf("checkout.policy: %w", err))
	}
	if c.GuestCart.TTL <= 0 {
		errs = append(errs, errors.New("guest_cart.ttl must be positive"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry.sample_ratio must be within [0, 1]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) CheckoutPolicy() domain.CheckoutPolicy {
	p, _ := domain.ParseCheckoutPolicy(c.Checkout.Policy)
	return p
}
