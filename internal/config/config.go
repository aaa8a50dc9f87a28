package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	Env             string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	// ContentAPIURL is where devices reach the internal API routes.
	ContentAPIURL string `envconfig:"CONTENT_API_URL" default:"http://localhost:8080"`

	Shopify         Shopify         `envconfig:"SHOPIFY"`
	CustomerAccount CustomerAccount `envconfig:"CUSTOMER_ACCOUNT"`
	Sanity          Sanity          `envconfig:"SANITY"`
	State           State           `envconfig:"STATE"`
	Redis           Redis           `envconfig:"REDIS"`
}

type Shopify struct {
	StoreDomain           string        `envconfig:"STORE_DOMAIN" validate:"required,hostname"`
	StorefrontAccessToken string        `envconfig:"STOREFRONT_ACCESS_TOKEN" validate:"required"`
	APIVersion            string        `envconfig:"API_VERSION" default:"2024-01"`
	Timeout               time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

type CustomerAccount struct {
	ShopID           string `envconfig:"SHOP_ID" validate:"required"`
	ClientID         string `envconfig:"CLIENT_ID" validate:"required"`
	AuthorizationURL string `envconfig:"AUTHORIZATION_URL" validate:"required,url"`
	TokenURL         string `envconfig:"TOKEN_URL" validate:"required,url"`
	LogoutURL        string `envconfig:"LOGOUT_URL" validate:"required,url"`
	CallbackURL      string `envconfig:"CALLBACK_URL" default:"http://127.0.0.1:8765/callback" validate:"required,url"`
	APIVersion       string `envconfig:"API_VERSION" default:"2025-07"`
}

type Sanity struct {
	ProjectID  string        `envconfig:"PROJECT_ID" validate:"required"`
	Dataset    string        `envconfig:"DATASET" default:"production" validate:"required"`
	APIVersion string        `envconfig:"API_VERSION" default:"2023-10-01"`
	UseCDN     bool          `envconfig:"USE_CDN" default:"true"`
	Token      string        `envconfig:"API_TOKEN" validate:"required"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"10s"`
	// WebhookSecret guards the publish webhook; the route is off when empty.
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
}

type State struct {
	Driver       string `envconfig:"DRIVER" default:"sqlite" validate:"oneof=memory sqlite postgres"`
	SQLitePath   string `envconfig:"SQLITE_PATH" default:"storefront.db" validate:"required_if=Driver sqlite"`
	DBConnString string `envconfig:"DB_DSN" validate:"required_if=Driver postgres"`
	DeviceID     string `envconfig:"DEVICE_ID"`
	// SealKeyPath holds the secretbox key used for token storage.
	SealKeyPath string `envconfig:"SEAL_KEY_PATH" default:"storefront.key"`
}

type Redis struct {
	Addr     string        `envconfig:"ADDR"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	TTL      time.Duration `envconfig:"TTL" default:"15m"`
}

// FromEnv loads an optional .env file, then builds Config from environment variables
// with the defaults declared on the struct tags.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// ValidateServer checks what the internal API server needs. The CMS token is only
// required here.
func (c Config) ValidateServer() error {
	if err := validate.StructExcept(c, "Shopify", "CustomerAccount", "Sanity", "State"); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(c.Shopify); err != nil {
		return fmt.Errorf("config shopify: %w", err)
	}
	if err := validate.Struct(c.Sanity); err != nil {
		return fmt.Errorf("config sanity: %w", err)
	}
	return nil
}

// ValidateDevice checks what the storefront command needs. It never requires CMS
// credentials.
func (c Config) ValidateDevice() error {
	if err := validate.StructExcept(c, "Shopify", "CustomerAccount", "Sanity", "State"); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(c.Shopify); err != nil {
		return fmt.Errorf("config shopify: %w", err)
	}
	if err := validate.Struct(c.CustomerAccount); err != nil {
		return fmt.Errorf("config customer account: %w", err)
	}
	if err := validate.Struct(c.State); err != nil {
		return fmt.Errorf("config state: %w", err)
	}
	if err := validate.Var(c.ContentAPIURL, "required,url"); err != nil {
		return fmt.Errorf("config content api url: %w", err)
	}
	return nil
}

// ValidateState checks only the state store settings.
func (c Config) ValidateState() error {
	if err := validate.Struct(c.State); err != nil {
		return fmt.Errorf("config state: %w", err)
	}
	return nil
}
