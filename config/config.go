package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Invitation InvitationConfig
	Bootstrap  BootstrapAdminConfig
	Google     GoogleConfig
	Email      EmailConfig
	AWS        AWSConfig
	Event      EventConfig
	Payment    PaymentConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds session token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// InvitationConfig holds invitation link signing settings.
type InvitationConfig struct {
	Secret   string
	TTLHours int
	BaseURL  string // e.g. https://admin.example.com/accept-invitation
}

// BootstrapAdminConfig is the break-glass account seeded at startup. Empty identifier disables seeding.
type BootstrapAdminConfig struct {
	Identifier  string
	Password    string
	DisplayName string
}

// GoogleConfig holds federated sign-in settings.
type GoogleConfig struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	SignInTimeoutSec  int
	AllowedEmails     []string
	AllowedDomains    []string
	GmailRefreshToken string // optional; enables the Gmail receipt sender
	GmailFrom         string
}

// EmailConfig holds the transactional relay settings for payment receipts.
type EmailConfig struct {
	RelayURL          string
	ServiceID         string
	TemplateID        string
	PublicKey         string
	PrivateKey        string
	MaxAttempts       int
	InitialBackoffMS  int
	RequestTimeoutSec int
}

// AWSConfig holds AWS credentials and the card export bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ExportsBucket        string
	PresignExpireMinutes int
}

// EventConfig is printed in the header block of every ID card.
type EventConfig struct {
	Title       string
	Subtitle    string
	DateLine    string
	AddressLine string
	TimeZone    string
}

// PaymentConfig holds fee defaults.
type PaymentConfig struct {
	DefaultAmount float64
	Currency      string
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// SignInTimeout returns the federated sign-in deadline.
func (c GoogleConfig) SignInTimeout() time.Duration {
	if c.SignInTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SignInTimeoutSec) * time.Second
}

// Enabled reports whether federated sign-in is configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != ""
}

// Location returns the event's time zone, used for "today" in payment history.
func (c EventConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "retreat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 12),
		},
		Invitation: InvitationConfig{
			Secret:   getEnv("INVITATION_SECRET", ""),
			TTLHours: getEnvInt("INVITATION_TTL_HOURS", 72),
			BaseURL:  getEnv("INVITATION_BASE_URL", "http://localhost:3000/accept-invitation"),
		},
		Bootstrap: BootstrapAdminConfig{
			Identifier:  getEnv("BOOTSTRAP_ADMIN_IDENTIFIER", ""),
			Password:    getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			DisplayName: getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},
		Google: GoogleConfig{
			ClientID:          getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:       getEnv("GOOGLE_REDIRECT_URL", "postmessage"),
			SignInTimeoutSec:  getEnvInt("GOOGLE_SIGNIN_TIMEOUT_SEC", 30),
			AllowedEmails:     splitTrim(strings.ToLower(getEnv("GOOGLE_ALLOWED_EMAILS", "")), ","),
			AllowedDomains:    splitTrim(strings.ToLower(getEnv("GOOGLE_ALLOWED_DOMAINS", "@gmail.com")), ","),
			GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
			GmailFrom:         getEnv("GMAIL_FROM", ""),
		},
		Email: EmailConfig{
			RelayURL:          getEnv("EMAIL_RELAY_URL", "https://api.emailjs.com/api/v1.0/email/send"),
			ServiceID:         getEnv("EMAIL_SERVICE_ID", ""),
			TemplateID:        getEnv("EMAIL_TEMPLATE_ID", ""),
			PublicKey:         getEnv("EMAIL_PUBLIC_KEY", ""),
			PrivateKey:        getEnv("EMAIL_PRIVATE_KEY", ""),
			MaxAttempts:       getEnvInt("EMAIL_MAX_ATTEMPTS", 3),
			InitialBackoffMS:  getEnvInt("EMAIL_INITIAL_BACKOFF_MS", 500),
			RequestTimeoutSec: getEnvInt("EMAIL_REQUEST_TIMEOUT_SEC", 10),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ExportsBucket:        getEnv("AWS_S3_EXPORTS_BUCKET", "retreat-card-exports"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Event: EventConfig{
			Title:       getEnv("EVENT_TITLE", "Deo Gratias 2025"),
			Subtitle:    getEnv("EVENT_SUBTITLE", "Teens & Kids Retreat"),
			DateLine:    getEnv("EVENT_DATE_LINE", "(Dec 28 - 30) | St. Mary's Church, Dubai"),
			AddressLine: getEnv("EVENT_ADDRESS_LINE", "P.O. BOX: 51200, Dubai, U.A.E"),
			TimeZone:    getEnv("EVENT_TIMEZONE", "Asia/Dubai"),
		},
		Payment: PaymentConfig{
			DefaultAmount: getEnvFloat("PAYMENT_DEFAULT_AMOUNT", 100),
			Currency:      getEnv("PAYMENT_CURRENCY", "AED"),
		},
	}
	if cfg.Invitation.Secret == "" {
		return nil, fmt.Errorf("INVITATION_SECRET is required")
	}
	if cfg.Invitation.Secret == cfg.JWT.Secret {
		return nil, fmt.Errorf("INVITATION_SECRET must differ from JWT_SECRET")
	}
	if cfg.Bootstrap.Identifier != "" && cfg.Bootstrap.Password == "" {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_IDENTIFIER is set")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
