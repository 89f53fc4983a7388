package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Persistence drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Reset code delivery drivers.
const (
	DeliveryLog   = "log"
	DeliveryRedis = "redis"
	DeliveryKafka = "kafka"
)

const minSecretLength = 32

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Cookie   CookieConfig
	Delivery DeliveryConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
}

// JWTConfig holds the two signing secrets. They must differ so that a refresh
// token can never verify as an access token.
type JWTConfig struct {
	AccessSecret      string
	RefreshSecret     string
	AccessExpiration  time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

// AuthConfig governs credential handling and the reset-code flow.
type AuthConfig struct {
	AdminUsername    string
	AdminPassword    string
	AdminEmail       string
	PBKDF2Iterations int
	ResetCodeTTL     time.Duration
	ResetCodeEcho    bool

	// SessionSweepInterval paces the removal of expired refresh tokens.
	SessionSweepInterval time.Duration
}

type CookieConfig struct {
	Domain string
}

// DeliveryConfig selects how reset codes leave the process.
type DeliveryConfig struct {
	Driver      string
	RedisStream string
	KafkaTopic  string
	Workers     int
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// EchoResetCode reports whether reset codes may be returned in HTTP bodies.
func (c *Config) EchoResetCode() bool {
	return c.Auth.ResetCodeEcho && !c.IsProduction()
}

func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database section. Tools that touch the schema
// do not need the signing secrets.
func LoadDatabase() (DatabaseConfig, error) {
	cfg, err := read()
	if err != nil {
		return DatabaseConfig{}, err
	}
	return cfg.Database, nil
}

func read() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = strings.TrimRight(v.GetString("API_PREFIX"), "/")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Kafka = KafkaConfig{Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS"))}

	cfg.JWT = JWTConfig{
		AccessSecret:      v.GetString("JWT_ACCESS_SECRET"),
		RefreshSecret:     v.GetString("JWT_REFRESH_SECRET"),
		AccessExpiration:  parseDuration(v.GetString("JWT_EXPIRATION"), 15*time.Minute),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		AdminEmail:       strings.ToLower(v.GetString("ADMIN_EMAIL")),
		PBKDF2Iterations: v.GetInt("AUTH_PBKDF2_ITERATIONS"),
		ResetCodeTTL:     parseDuration(v.GetString("AUTH_RESET_CODE_TTL"), time.Hour),
		ResetCodeEcho:    v.GetBool("AUTH_RESET_CODE_ECHO"),

		SessionSweepInterval: parseDuration(v.GetString("AUTH_SESSION_SWEEP_INTERVAL"), time.Hour),
	}

	cfg.Cookie = CookieConfig{Domain: v.GetString("COOKIE_DOMAIN")}

	cfg.Delivery = DeliveryConfig{
		Driver:      strings.ToLower(v.GetString("AUTH_DELIVERY_DRIVER")),
		RedisStream: v.GetString("AUTH_DELIVERY_REDIS_STREAM"),
		KafkaTopic:  v.GetString("AUTH_DELIVERY_KAFKA_TOPIC"),
		Workers:     v.GetInt("AUTH_DELIVERY_WORKERS"),
		BufferSize:  v.GetInt("AUTH_DELIVERY_BUFFER"),
		MaxRetries:  v.GetInt("AUTH_DELIVERY_MAX_RETRIES"),
		RetryDelay:  parseDuration(v.GetString("AUTH_DELIVERY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.AccessSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_SECRET must be at least %d bytes", minSecretLength))
	}
	if len(c.JWT.RefreshSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.JWT.AccessExpiration <= 0 || c.JWT.RefreshExpiration <= 0 {
		errs = append(errs, errors.New("token expirations must be positive"))
	}
	if strings.TrimSpace(c.Auth.AdminUsername) == "" || c.Auth.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required"))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	switch c.Delivery.Driver {
	case DeliveryLog, DeliveryRedis:
	case DeliveryKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for kafka delivery"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_DELIVERY_DRIVER %q", c.Delivery.Driver))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/auth")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "devscout")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_BROKERS", "")

	v.SetDefault("JWT_ACCESS_SECRET", "")
	v.SetDefault("JWT_REFRESH_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "15m")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "devscout")

	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("AUTH_PBKDF2_ITERATIONS", 100000)
	v.SetDefault("AUTH_RESET_CODE_TTL", "1h")
	v.SetDefault("AUTH_RESET_CODE_ECHO", false)
	v.SetDefault("AUTH_SESSION_SWEEP_INTERVAL", "1h")

	v.SetDefault("COOKIE_DOMAIN", "")

	v.SetDefault("AUTH_DELIVERY_DRIVER", DeliveryLog)
	v.SetDefault("AUTH_DELIVERY_REDIS_STREAM", "auth:reset-codes")
	v.SetDefault("AUTH_DELIVERY_KAFKA_TOPIC", "auth.reset-codes")
	v.SetDefault("AUTH_DELIVERY_WORKERS", 2)
	v.SetDefault("AUTH_DELIVERY_BUFFER", 64)
	v.SetDefault("AUTH_DELIVERY_MAX_RETRIES", 3)
	v.SetDefault("AUTH_DELIVERY_RETRY_DELAY", "2s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
