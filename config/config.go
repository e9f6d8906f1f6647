package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port        string `yaml:"port"`
	GinMode     string `yaml:"gin_mode"`
	FrontendURL string `yaml:"frontend_url"`
	// PublicBaseURL prefixes links to saved trips (QR codes, e-mails).
	PublicBaseURL string `yaml:"public_base_url"`
	// Requests per second allowed per client IP on the expensive routes.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type StorageConfig struct {
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTLStr string        `yaml:"cache_ttl"`
	CacheTTL    time.Duration `yaml:"-"`
}

type ProvidersConfig struct {
	PexelsAPIKey      string  `yaml:"pexels_api_key"`
	PexelsRatePerSec  float64 `yaml:"pexels_rate_per_sec"`
	OpenTripMapAPIKey string  `yaml:"opentripmap_api_key"`
	ResendAPIKey      string  `yaml:"resend_api_key"`
	EmailFrom         string  `yaml:"email_from"`
}

type PlannerConfig struct {
	FlightStrategy   string        `yaml:"flight_strategy"`
	EnrichTimeoutStr string        `yaml:"enrich_timeout"`
	EnrichTimeout    time.Duration `yaml:"-"`
	PhotoConcurrency int           `yaml:"photo_concurrency"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Providers ProvidersConfig `yaml:"providers"`
	Planner   PlannerConfig   `yaml:"planner"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:          "8080",
			FrontendURL:   "http://localhost:5173",
			PublicBaseURL: "http://localhost:5173",
			RateLimit:     2,
			RateBurst:     5,
		},
		Storage: StorageConfig{
			CacheTTLStr: "24h",
		},
		Providers: ProvidersConfig{
			PexelsRatePerSec: 5,
		},
		Planner: PlannerConfig{
			FlightStrategy:   "fixed",
			EnrichTimeoutStr: "8s",
			PhotoConcurrency: 4,
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_PATH
// (if set), then environment variables. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment")
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		log.Printf("Loading configuration from: %s", path)
	}

	applyEnv(&cfg)

	var err error
	if cfg.Storage.CacheTTL, err = time.ParseDuration(cfg.Storage.CacheTTLStr); err != nil {
		return cfg, fmt.Errorf("failed to parse cache_ttl: %w", err)
	}
	if cfg.Planner.EnrichTimeout, err = time.ParseDuration(cfg.Planner.EnrichTimeoutStr); err != nil {
		return cfg, fmt.Errorf("failed to parse enrich_timeout: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.GinMode, "GIN_MODE")
	setString(&cfg.Server.FrontendURL, "FRONTEND_URL")
	setString(&cfg.Server.PublicBaseURL, "PUBLIC_BASE_URL")
	setFloat(&cfg.Server.RateLimit, "RATE_LIMIT")
	setInt(&cfg.Server.RateBurst, "RATE_BURST")

	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Storage.RedisURL, "REDIS_URL")
	setString(&cfg.Storage.CacheTTLStr, "CACHE_TTL")

	setString(&cfg.Providers.PexelsAPIKey, "PEXELS_API_KEY")
	setFloat(&cfg.Providers.PexelsRatePerSec, "PEXELS_RATE_PER_SEC")
	setString(&cfg.Providers.OpenTripMapAPIKey, "OPENTRIPMAP_API_KEY")
	setString(&cfg.Providers.ResendAPIKey, "RESEND_API_KEY")
	setString(&cfg.Providers.EmailFrom, "EMAIL_FROM")

	setString(&cfg.Planner.FlightStrategy, "PRICING_FLIGHT_STRATEGY")
	setString(&cfg.Planner.EnrichTimeoutStr, "ENRICH_TIMEOUT")
	setInt(&cfg.Planner.PhotoConcurrency, "PHOTO_CONCURRENCY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("⚠️  Ignoring %s=%q: %v", key, v, err)
			return
		}
		*dst = n
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("⚠️  Ignoring %s=%q: %v", key, v, err)
			return
		}
		*dst = f
	}
}
