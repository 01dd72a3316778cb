package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "default_secret"

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	LogLevel  string
	Database  DatabaseConfig
	JWT       JWTConfig
	Reset     ResetConfig
	Password  PasswordConfig
	Mail      MailConfig
	RabbitMQ  RabbitMQConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig // auth endpoints
	APILimit  RateLimitConfig // every route
	Seed      SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenMins int
}

// AccessTokenTTL returns the access token lifetime
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

// ResetConfig holds password reset configuration
type ResetConfig struct {
	TokenMinutes     int
	BaseURL          string
	TokenInResponse  bool // development only
	HideUnknownEmail bool
	PurgeSchedule    string
}

// TokenTTL returns the reset token lifetime
func (r ResetConfig) TokenTTL() time.Duration {
	return time.Duration(r.TokenMinutes) * time.Minute
}

// PasswordConfig holds hashing cost and password policy
type PasswordConfig struct {
	BcryptCost    int
	MinLength     int
	RequireDigit  bool
	RequireUpper  bool
	RequireLower  bool
	RequireSymbol bool
}

// MailConfig holds outgoing mail configuration
type MailConfig struct {
	From  string
	Queue string
}

// RabbitMQConfig holds broker configuration; empty URL disables the mail queue
type RabbitMQConfig struct {
	URL string
}

// KafkaConfig holds event stream configuration; no brokers disables publishing
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig holds rate limiting for sensitive auth endpoints
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	Prefix string
}

// SeedConfig holds the bootstrap admin account
type SeedConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", cfg.AppMode)
	return cfg, nil
}

// FromEnv builds the config from the process environment only
func FromEnv() (*Config, error) {
	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	cfg := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Database:  loadDatabaseConfig(appMode),
		JWT:       loadJWTConfig(appMode),
		Reset:     loadResetConfig(appMode),
		Password:  loadPasswordConfig(),
		Mail:      loadMailConfig(),
		RabbitMQ:  RabbitMQConfig{URL: getEnv("RABBITMQ_URL", "")},
		Kafka:     loadKafkaConfig(),
		Redis:     loadRedisConfig(),
		RateLimit: loadRateLimitConfig(),
		APILimit:  loadAPILimitConfig(),
		Seed:      loadSeedConfig(appMode),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server must not start with
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if c.IsProd() && c.JWT.Secret == defaultJWTSecret {
		errs = append(errs, errors.New("PROD_JWT_SECRET must be set in prod"))
	}
	if c.JWT.AccessTokenMins <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_MINUTES must be positive"))
	}
	if c.Reset.TokenMinutes <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_MINUTES must be positive"))
	}
	if c.IsProd() && c.Reset.TokenInResponse {
		errs = append(errs, errors.New("RESET_TOKEN_IN_RESPONSE is not allowed in prod"))
	}
	if c.RateLimit.Max < 1 || c.APILimit.Max < 1 {
		errs = append(errs, errors.New("rate limit maximums must be positive"))
	}
	if c.RateLimit.Window <= 0 || c.APILimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit windows must be positive"))
	}
	if c.Password.MinLength < 1 {
		errs = append(errs, errors.New("PASSWORD_MIN_LENGTH must be at least 1"))
	}
	return errors.Join(errs...)
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "langlearn"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		Issuer:          getEnv("JWT_ISSUER", "langlearn-api"),
		AccessTokenMins: getEnvInt("ACCESS_TOKEN_MINUTES", 60),
	}
}

func loadResetConfig(mode string) ResetConfig {
	prefix := modePrefix(mode)

	return ResetConfig{
		TokenMinutes:     getEnvInt("RESET_TOKEN_MINUTES", 15),
		BaseURL:          strings.TrimRight(getEnv(prefix+"APP_BASE_URL", "http://localhost:3000"), "/"),
		TokenInResponse:  getEnvBool("RESET_TOKEN_IN_RESPONSE", false),
		HideUnknownEmail: getEnvBool("RESET_HIDE_UNKNOWN_EMAIL", false),
		PurgeSchedule:    getEnv("RESET_PURGE_SCHEDULE", "@every 30m"),
	}
}

func loadPasswordConfig() PasswordConfig {
	return PasswordConfig{
		BcryptCost:    getEnvInt("BCRYPT_COST", 12),
		MinLength:     getEnvInt("PASSWORD_MIN_LENGTH", 4),
		RequireDigit:  getEnvBool("PASSWORD_REQUIRE_DIGIT", true),
		RequireUpper:  getEnvBool("PASSWORD_REQUIRE_UPPER", true),
		RequireLower:  getEnvBool("PASSWORD_REQUIRE_LOWER", true),
		RequireSymbol: getEnvBool("PASSWORD_REQUIRE_SYMBOL", true),
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		From:  getEnv("MAIL_FROM", "no-reply@langlearn.local"),
		Queue: getEnv("MAIL_QUEUE", "email_jobs"),
	}
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers: brokers,
		Topic:   getEnv("KAFKA_AUTH_TOPIC", "auth-events"),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:    getEnvInt("AUTH_RATE_LIMIT_MAX", 10),
		Window: time.Duration(getEnvInt("AUTH_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		Prefix: getEnv("AUTH_RATE_LIMIT_PREFIX", "ratelimit:auth"),
	}
}

func loadAPILimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:    getEnvInt("API_RATE_LIMIT_MAX", 100),
		Window: time.Duration(getEnvInt("API_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func loadSeedConfig(mode string) SeedConfig {
	cfg := SeedConfig{
		AdminUsername: getEnv("SEED_ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}
	// A well-known password is only acceptable outside prod
	if cfg.AdminPassword == "" && mode == "dev" {
		cfg.AdminPassword = "Admin123!"
	}
	return cfg
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.Reset.BaseURL
	}
	return origins
}
