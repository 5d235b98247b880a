package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	defaultHTTPPort    = "5000"
	defaultCORSOrigins = "*"
	defaultStaticDir   = "./web"
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
	defaultEnvironment = "development"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	DatabaseURL string `koanf:"database_url" validate:"required"`
	HTTPPort    string `koanf:"http_port" validate:"required,number"`
	CORSOrigins string `koanf:"cors_allowed_origins" validate:"required"`
	StaticDir   string `koanf:"static_dir" validate:"required"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `koanf:"log_format" validate:"oneof=json console"`
	Environment string `koanf:"environment"`

	// Warnings collects notes about defaults that should not reach production.
	Warnings []string `koanf:"-"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load()
}

func load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("ortam değişkenleri okunamadı: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config çözümlenemedi: %w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config doğrulanamadı: %w", err)
	}
	if _, err := cfg.ListenAddr(); err != nil {
		return nil, fmt.Errorf("config doğrulanamadı: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.HTTPPort = withDefault(c.HTTPPort, defaultHTTPPort)
	c.CORSOrigins = withDefault(c.CORSOrigins, defaultCORSOrigins)
	c.StaticDir = withDefault(c.StaticDir, defaultStaticDir)
	c.LogLevel = strings.ToLower(withDefault(c.LogLevel, defaultLogLevel))
	c.LogFormat = strings.ToLower(withDefault(c.LogFormat, defaultLogFormat))
	c.Environment = withDefault(c.Environment, defaultEnvironment)

	if c.CORSOrigins == defaultCORSOrigins {
		c.Warnings = append(c.Warnings, "CORS_ALLOWED_ORIGINS tanımlı değil, tüm origin'lere izin veriliyor. Production için kendi domain'ini tanımla.")
	}
	if c.IsProduction() && c.LogFormat == "console" {
		c.Warnings = append(c.Warnings, "LOG_FORMAT=console production ortamında önerilmez.")
	}
}

// AllowedOrigins returns the trimmed, non-empty CORS origins.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// ListenAddr returns ":<port>" for app.Listen.
func (c *Config) ListenAddr() (string, error) {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil {
		return "", fmt.Errorf("geçersiz HTTP_PORT %q: %w", c.HTTPPort, err)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("HTTP_PORT aralık dışında: %d", port)
	}
	return ":" + strconv.Itoa(port), nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func withDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
