package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP     HTTPServer
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// StaticDir holds the storefront pages; empty disables static serving.
	StaticDir string `env:"STATIC_DIR" envDefault:"public"`

	DB       Database
	JWT      JWT      `envPrefix:"JWT_"`
	Google   Google   `envPrefix:"GOOGLE_"`
	Midtrans Midtrans `envPrefix:"MIDTRANS_"`
	Email    Email    `envPrefix:"EMAIL_"`
	ES       Elastic  `envPrefix:"ES_"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	RedisAddr    string   `env:"REDIS_ADDR"`

	EnforceStock bool `env:"CHECKOUT_ENFORCE_STOCK" envDefault:"false"`
	CSRFEnabled  bool `env:"CSRF_ENABLED" envDefault:"false"`
	AutoMigrate  bool `env:"AUTO_MIGRATE" envDefault:"true"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"3000"`
}

type Database struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"go_outdoor_rental"`
}

type JWT struct {
	AccessSecret  string `env:"SECRET"`
	RefreshSecret string `env:"REFRESH_SECRET"`
}

type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

type Midtrans struct {
	ServerKey    string        `env:"SERVER_KEY"`
	ClientKey    string        `env:"CLIENT_KEY"`
	IsProduction bool          `env:"IS_PRODUCTION" envDefault:"false"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type Email struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASS"`
}

type Elastic struct {
	URL      string `env:"URL"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Index    string `env:"INDEX" envDefault:"products"`
}

// Load reads .env when present and parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("notice: .env file not found, using system environment")
	}
	return Parse(env.Options{})
}

func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN prefers DATABASE_URL and falls back to the DB_* parts.
func (c *Config) DSN() string {
	if c.DB.URL != "" {
		return c.DB.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
