package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Policy   shift.Policy
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

func Load() (*Config, error) {
	// Missing .env is fine: containers inject the environment directly.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance policy thresholds. Defaults are the stock policy; each can
	// be overridden per deployment.
	policy := shift.DefaultPolicy()
	if policy.BreakCapMinutes, err = getEnvInt("POLICY_BREAK_CAP_MINUTES", policy.BreakCapMinutes); err != nil {
		return nil, err
	}
	if policy.NamazCapMinutes, err = getEnvInt("POLICY_NAMAZ_CAP_MINUTES", policy.NamazCapMinutes); err != nil {
		return nil, err
	}
	if policy.StandardShiftMinutes, err = getEnvInt("POLICY_STANDARD_SHIFT_MINUTES", policy.StandardShiftMinutes); err != nil {
		return nil, err
	}
	if policy.GraceMinutes, err = getEnvInt("POLICY_GRACE_MINUTES", policy.GraceMinutes); err != nil {
		return nil, err
	}
	if policy.TaskToleranceMinutes, err = getEnvInt("POLICY_TASK_TOLERANCE_MINUTES", policy.TaskToleranceMinutes); err != nil {
		return nil, err
	}
	config.Policy = policy

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Policy.BreakCapMinutes <= 0 || c.Policy.NamazCapMinutes <= 0 {
		return fmt.Errorf("break caps must be positive")
	}
	if c.Policy.StandardShiftMinutes <= 0 {
		return fmt.Errorf("POLICY_STANDARD_SHIFT_MINUTES must be positive")
	}
	if c.Policy.GraceMinutes < 0 || c.Policy.TaskToleranceMinutes < 0 {
		return fmt.Errorf("grace and tolerance must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
