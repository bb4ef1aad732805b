// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"lecture_companion_backend/internal/platform/crypto"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"-"` // SERVER_TIMEOUT_SECONDS

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"` // postgres or sqlite
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSchema          string        `mapstructure:"DB_SCHEMA"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"`         // DB_CONN_MAX_LIFETIME_MINUTES
	DBSource          string        `mapstructure:"DB_SOURCE"` // sqlite file or DSN

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Google OAuth Configuration
	GoogleClientID             string        `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret         string        `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI          string        `mapstructure:"GOOGLE_REDIRECT_URI"` // must match the Google console exactly
	GoogleTokenURL             string        `mapstructure:"GOOGLE_TOKEN_URL"`
	GoogleJWKSURL              string        `mapstructure:"GOOGLE_JWKS_URL"`
	GoogleIssuers              []string      `mapstructure:"-"`
	GoogleHTTPTimeout          time.Duration `mapstructure:"-"` // GOOGLE_HTTP_TIMEOUT_SECONDS
	GoogleLinkExistingAccounts bool          `mapstructure:"GOOGLE_LINK_EXISTING_ACCOUNTS"`
	CodeReplayTTL              time.Duration `mapstructure:"-"` // CODE_REPLAY_TTL_MINUTES

	// Session Cookie Configuration
	SessionSecret       string `mapstructure:"SESSION_SECRET"`
	SessionCookieName   string `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieDomain string `mapstructure:"SESSION_COOKIE_DOMAIN"`
	SessionCookieSecure bool   `mapstructure:"SESSION_COOKIE_SECURE"`
	// SessionSecretGenerated is set when no SESSION_SECRET was configured outside release mode.
	SessionSecretGenerated bool `mapstructure:"-"`

	CORSAllowedOrigins []string `mapstructure:"-"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "lecture_companion_db")
	v.SetDefault("DB_SCHEMA", "lecture_companion")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "lecture_companion.db")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URI", "")
	v.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs")
	v.SetDefault("GOOGLE_ISSUERS", "https://accounts.google.com,accounts.google.com")
	v.SetDefault("GOOGLE_HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("GOOGLE_LINK_EXISTING_ACCOUNTS", false)
	v.SetDefault("CODE_REPLAY_TTL_MINUTES", 10)

	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_COOKIE_NAME", "lc_session")
	v.SetDefault("SESSION_COOKIE_DOMAIN", "")
	v.SetDefault("SESSION_COOKIE_SECURE", true)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration fields are read as whole seconds/minutes.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.GoogleHTTPTimeout = time.Duration(v.GetInt("GOOGLE_HTTP_TIMEOUT_SECONDS")) * time.Second
	cfg.CodeReplayTTL = time.Duration(v.GetInt("CODE_REPLAY_TTL_MINUTES")) * time.Minute

	cfg.GoogleIssuers = splitList(v.GetString("GOOGLE_ISSUERS"))
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Sessions signed with a per-process secret do not survive a restart.
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		secret, err := crypto.GenerateSecureRandomString(32)
		if err != nil {
			return nil, fmt.Errorf("error generating session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}
	return &cfg, nil
}

// Validate checks the settings that the service cannot run without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if !schemaNamePattern.MatchString(c.DBSchema) {
			return fmt.Errorf("DB_SCHEMA %q is not a valid schema name", c.DBSchema)
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}

	if c.GoogleHTTPTimeout <= 0 {
		return fmt.Errorf("GOOGLE_HTTP_TIMEOUT_SECONDS must be positive")
	}
	if len(c.GoogleIssuers) == 0 {
		return fmt.Errorf("GOOGLE_ISSUERS must name at least one issuer")
	}

	if c.IsRelease() {
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins in release mode")
			}
		}

		var missing []string
		if strings.TrimSpace(c.GoogleClientID) == "" {
			missing = append(missing, "GOOGLE_CLIENT_ID")
		}
		if strings.TrimSpace(c.GoogleClientSecret) == "" {
			missing = append(missing, "GOOGLE_CLIENT_SECRET")
		}
		if strings.TrimSpace(c.GoogleRedirectURI) == "" {
			missing = append(missing, "GOOGLE_REDIRECT_URI")
		}
		if strings.TrimSpace(c.SessionSecret) == "" {
			missing = append(missing, "SESSION_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("FATAL: required settings not set in release mode: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
