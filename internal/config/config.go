package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProgressModeFixed = "fixed"
	ProgressModeSpeed = "speed"

	ProviderMapbox = "mapbox"
	ProviderORS    = "ors"
)

// Config holds the service settings. Values come from the environment
// (optionally via .env), then config.yaml, then defaults.
type Config struct {
	Port string `validate:"required,numeric"`

	TickInterval      time.Duration `validate:"gt=0"`
	ProgressMode      string        `validate:"oneof=fixed speed"`
	ProgressIncrement float64       `validate:"gt=0,lte=1"`
	SpeedMPS          float64       `validate:"gt=0"`

	RoutingProvider  string        `validate:"oneof=mapbox ors"`
	RoutingBaseURL   string        `validate:"omitempty,url"`
	RoutingAPIKey    string        `validate:"required"`
	RoutingProfile   string
	RoutingTimeout   time.Duration `validate:"gt=0"`
	RoutingRateLimit float64       `validate:"gte=0"`

	OptimizerURL     string        `validate:"required,url"`
	OptimizerTimeout time.Duration `validate:"gt=0"`

	DBPath              string `validate:"required"`
	DatabaseURL         string
	ResourcesSeedPath   string
	EmergenciesSeedPath string
	CORSOrigins         []string
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"TICK_INTERVAL":         "500ms",
	"PROGRESS_MODE":         ProgressModeFixed,
	"PROGRESS_INCREMENT":    0.04,
	"SPEED_MPS":             15.0,
	"ROUTING_PROVIDER":      ProviderMapbox,
	"ROUTING_BASE_URL":      "",
	"ROUTING_API_KEY":       "",
	"ROUTING_PROFILE":       "",
	"ROUTING_TIMEOUT":       "10s",
	"ROUTING_RATE_LIMIT":    5.0,
	"OPTIMIZER_URL":         "http://localhost:8000",
	"OPTIMIZER_TIMEOUT":     "10s",
	"DB_PATH":               "data/app.db",
	"DATABASE_URL":          "",
	"RESOURCES_SEED_PATH":   "data/seeds/resources.json",
	"EMERGENCIES_SEED_PATH": "data/seeds/emergencies.json",
	"CORS_ORIGINS":          "*",
}

// Load reads .env, an optional config.yaml and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load config: read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a validated Config from v, applying defaults and
// environment overrides.
func FromViper(v *viper.Viper) (Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:                strings.TrimSpace(v.GetString("PORT")),
		TickInterval:        v.GetDuration("TICK_INTERVAL"),
		ProgressMode:        strings.ToLower(strings.TrimSpace(v.GetString("PROGRESS_MODE"))),
		ProgressIncrement:   v.GetFloat64("PROGRESS_INCREMENT"),
		SpeedMPS:            v.GetFloat64("SPEED_MPS"),
		RoutingProvider:     strings.ToLower(strings.TrimSpace(v.GetString("ROUTING_PROVIDER"))),
		RoutingBaseURL:      strings.TrimSpace(v.GetString("ROUTING_BASE_URL")),
		RoutingAPIKey:       strings.TrimSpace(v.GetString("ROUTING_API_KEY")),
		RoutingProfile:      strings.TrimSpace(v.GetString("ROUTING_PROFILE")),
		RoutingTimeout:      v.GetDuration("ROUTING_TIMEOUT"),
		RoutingRateLimit:    v.GetFloat64("ROUTING_RATE_LIMIT"),
		OptimizerURL:        strings.TrimSpace(v.GetString("OPTIMIZER_URL")),
		OptimizerTimeout:    v.GetDuration("OPTIMIZER_TIMEOUT"),
		DBPath:              strings.TrimSpace(v.GetString("DB_PATH")),
		DatabaseURL:         strings.TrimSpace(v.GetString("DATABASE_URL")),
		ResourcesSeedPath:   strings.TrimSpace(v.GetString("RESOURCES_SEED_PATH")),
		EmergenciesSeedPath: strings.TrimSpace(v.GetString("EMERGENCIES_SEED_PATH")),
		CORSOrigins:         splitList(v.GetString("CORS_ORIGINS")),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s (value: '%v')", e.Field(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
