package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ethnicdev/gatehouse/internal/gateway/proxy"
)

type IdentityConfig struct {
	URL               string        `yaml:"url"`
	IntrospectTimeout time.Duration `yaml:"introspectTimeout"`

	// Circuit breaker around introspection.
	BreakerMaxFailures  int           `yaml:"breakerMaxFailures"`
	BreakerResetTimeout time.Duration `yaml:"breakerResetTimeout"`
}

type Config struct {
	Port      int    `yaml:"port"`
	APIPrefix string `yaml:"apiPrefix"`

	Env       string `yaml:"env"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	ShutdownGracePeriod time.Duration `yaml:"shutdownGracePeriod"`

	Identity IdentityConfig `yaml:"identity"`

	// PublicEndpoints are full gateway paths that skip authentication.
	PublicEndpoints []string      `yaml:"publicEndpoints"`
	Routes          []proxy.Route `yaml:"routes"`
}

// DefaultConfig routes /api/v1/identity and /api/v1/profile to local
// services and leaves the identity service's token endpoints public.
func DefaultConfig() Config {
	return Config{
		Port:                8888,
		APIPrefix:           "/api/v1",
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		ShutdownGracePeriod: 10 * time.Second,
		Identity: IdentityConfig{
			URL:                 "http://localhost:8080",
			IntrospectTimeout:   3 * time.Second,
			BreakerMaxFailures:  5,
			BreakerResetTimeout: 30 * time.Second,
		},
		PublicEndpoints: []string{
			"/api/v1/identity/auth/token",
			"/api/v1/identity/auth/introspect",
			"/api/v1/identity/auth/logout",
			"/api/v1/identity/auth/refresh",
			"/api/v1/identity/users/registration",
		},
		Routes: []proxy.Route{
			{ID: "identity_service", URI: "http://localhost:8080", Prefix: "/identity", StripPrefix: true},
			{ID: "profile_service", URI: "http://localhost:8081", Prefix: "/profile", StripPrefix: true},
		},
	}
}

// LoadConfig layers the YAML file at path (optional) and then environment
// variables over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}

		// Keys absent from the file keep their defaults; lists present in
		// the file replace the default lists outright.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvIntOrDefault("PORT", c.Port)
	c.Env = getEnvOrDefault("ENV", c.Env)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.Identity.URL = getEnvOrDefault("GATEWAY_IDENTITY_URL", c.Identity.URL)
	c.Identity.IntrospectTimeout = getEnvDurationOrDefault("GATEWAY_INTROSPECT_TIMEOUT", c.Identity.IntrospectTimeout)
}

func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Identity.URL == "" {
		errs = append(errs, errors.New("identity.url must be set"))
	}
	if c.Identity.IntrospectTimeout <= 0 {
		errs = append(errs, errors.New("identity.introspectTimeout must be positive"))
	}
	if len(c.Routes) == 0 {
		errs = append(errs, errors.New("at least one route is required"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if intValue, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return duration
	}
	return defaultValue
}
