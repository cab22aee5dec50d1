package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethnicdev/gatehouse/pkg/jwtx"
)

// MemoryDatabase keeps everything in process; used by tests.
const MemoryDatabase = ":memory:"

type Config struct {
	SignerKey           string        // Required: HS512 secret, at least 64 bytes
	ValidDuration       time.Duration // Token lifetime (default: 1h)
	RefreshableDuration time.Duration // Refresh window measured from iat (default: 10h)
	Issuer              string        // iss claim (default: ethnicdev.com)

	DatabaseFile  string // SQLite database path (default: ./identity.db)
	PepperFile    string // Password pepper, created on first start (default: ./pepper)
	AdminPassword string // Password for the seeded admin user (default: admin)

	Env                  string        // dev, staging, prod (default: dev)
	LogLevel             string        // debug, info, warn, error (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // HTTP port (default: 8080)
	ShutdownGracePeriod  time.Duration // default: 10s
	HousekeepingInterval time.Duration // default: 1h

	// loadErrs holds values LoadConfig could not parse; Validate reports them.
	loadErrs []error
}

func LoadConfig() Config {
	var errs []error
	seconds := func(key string, def time.Duration) time.Duration {
		d, err := getEnvSecondsOrDefault(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	return Config{
		SignerKey:           os.Getenv("IDENTITY_JWT_SIGNER_KEY"),
		ValidDuration:       seconds("IDENTITY_JWT_VALID_DURATION", time.Hour),
		RefreshableDuration: seconds("IDENTITY_JWT_REFRESHABLE_DURATION", 10*time.Hour),
		Issuer:              getEnvOrDefault("IDENTITY_ISSUER", "ethnicdev.com"),

		DatabaseFile:  getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:    getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		AdminPassword: getEnvOrDefault("IDENTITY_ADMIN_PASSWORD", "admin"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		loadErrs: errs,
	}
}

// Validate rejects configurations the service cannot run safely with.
func (c Config) Validate() error {
	errs := append([]error(nil), c.loadErrs...)

	if len(c.SignerKey) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("IDENTITY_JWT_SIGNER_KEY must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.ValidDuration < time.Second || c.ValidDuration%time.Second != 0 {
		errs = append(errs, errors.New("IDENTITY_JWT_VALID_DURATION must be a positive whole number of seconds"))
	}
	if c.RefreshableDuration%time.Second != 0 {
		errs = append(errs, errors.New("IDENTITY_JWT_REFRESHABLE_DURATION must be a whole number of seconds"))
	}
	if c.RefreshableDuration < c.ValidDuration {
		errs = append(errs, errors.New("IDENTITY_JWT_REFRESHABLE_DURATION must not be shorter than the valid duration"))
	}
	if c.Issuer == "" {
		errs = append(errs, errors.New("IDENTITY_ISSUER must not be empty"))
	}
	if c.DatabaseFile == "" {
		errs = append(errs, errors.New("IDENTITY_DATABASE_FILE must not be empty"))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("IDENTITY_ADMIN_PASSWORD must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
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
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

// getEnvSecondsOrDefault reads a positive whole number of seconds.
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs <= 0 {
		return defaultValue, fmt.Errorf("%s must be a positive whole number of seconds, got %q", key, value)
	}
	return time.Duration(secs) * time.Second, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// e.g. "1h", "30m", "90s"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
