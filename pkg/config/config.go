package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLength = 16

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Mailjet  MailjetConfig
	Redis    RedisConfig
	Reports  ReportsConfig
	Audit    AuditConfig
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

type AppConfig struct {
	Name             string
	Version          string
	Environment      string
	AppDeploymentUrl string
	ResetTokenKey    string
}

type ServerConfig struct {
	Port            string
	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
	RequestTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// DSN prefers DATABASE_URL and falls back to the discrete parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type JWTConfig struct {
	SecretKey  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type RedisConfig struct {
	URL           string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PoolSize      int
}

type ReportsConfig struct {
	Dir             string
	Retention       time.Duration
	CleanupInterval time.Duration
}

type AuditConfig struct {
	QueueSize              int
	Workers                int
	SessionCleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error

	cfg := &Config{
		App: AppConfig{
			Name:             getEnv("APP_NAME", "Pharma Supply API"),
			Version:          getEnv("APP_VERSION", "1.0.0"),
			Environment:      getEnv("APP_ENV", "development"),
			AppDeploymentUrl: getEnv("APP_DEPLOYMENT_URL", "http://localhost:3000"),
			ResetTokenKey:    getEnv("APP_RESET_TOKEN_KEY", ""),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "5000"),
			CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
			RateLimit:       getInt("RATE_LIMIT", 100, &errs),
			RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", 60*time.Second, &errs),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 10*time.Second, &errs),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "pharma_supply"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25, &errs),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute, &errs),
			AutoMigrate:     getBool("DB_AUTO_MIGRATE", true, &errs),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", ""),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 15*time.Minute, &errs),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour, &errs),
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", "https://api.mailjet.com"),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", "Pharma Supply"),
		},
		Redis: RedisConfig{
			URL:           getEnv("REDIS_URL", ""),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getInt("REDIS_DB", 0, &errs),
			PoolSize:      getInt("REDIS_POOL_SIZE", 10, &errs),
		},
		Reports: ReportsConfig{
			Dir:             getEnv("REPORTS_DIR", "reports"),
			Retention:       getDuration("REPORTS_RETENTION", 7*24*time.Hour, &errs),
			CleanupInterval: getDuration("REPORTS_CLEANUP_INTERVAL", time.Hour, &errs),
		},
		Audit: AuditConfig{
			QueueSize:              getInt("AUDIT_QUEUE_SIZE", 1024, &errs),
			Workers:                getInt("AUDIT_WORKERS", 2, &errs),
			SessionCleanupInterval: getDuration("SESSION_CLEANUP_INTERVAL", 15*time.Minute, &errs),
		},
	}

	if cfg.JWT.SecretKey == "" {
		errs = append(errs, errors.New("missing jwt secret"))
	} else if len(cfg.JWT.SecretKey) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d characters", minJWTSecretLength))
	}

	// AES-CBC needs a 16, 24 or 32 byte key.
	switch len(cfg.App.ResetTokenKey) {
	case 0:
		errs = append(errs, errors.New("missing app reset token key"))
	case 16, 24, 32:
	default:
		errs = append(errs, errors.New("app reset token key must be 16, 24 or 32 bytes"))
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		errs = append(errs, errors.New("missing database password"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getInt(key string, defaultVal int, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultVal
	}
	return n
}

func getBool(key string, defaultVal bool, errs *[]error) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultVal
	}
	return b
}

func getDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultVal
	}
	return d
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
