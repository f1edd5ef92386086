package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string
	OTPSalt     string
	DevMode     bool
	LogLevel    string

	SMTP SMTPConfig

	// AllowedOrigins lists the browser origins accepted by CORS
	AllowedOrigins []string

	GeminiAPIKey   string
	GeminiModelURL string
}

// SMTPConfig holds the outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough SMTP settings are present to send mail
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

const (
	defaultPort           = "8080"
	defaultSMTPPort       = 587
	defaultGeminiModelURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
)

var defaultAllowedOrigins = []string{"http://localhost:5173"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           defaultPort,
		LogLevel:       "info",
		AllowedOrigins: defaultAllowedOrigins,
		GeminiModelURL: defaultGeminiModelURL,
		SMTP:           SMTPConfig{Port: defaultSMTPPort},
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	if u, err := url.Parse(databaseURL); err == nil {
		host := u.Hostname()
		if host == "" {
			host = "localhost"
		}
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Debug("database target", "host", host, "db", dbName, "user", u.User.Username())
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	otpSalt := os.Getenv("OTP_SALT")
	if otpSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}
	cfg.OTPSalt = otpSalt

	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = os.Getenv("MAIL_FROM")
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}
	if p := os.Getenv("SMTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("SMTP_PORT must be a positive integer, got %q", p)
		}
		cfg.SMTP.Port = port
	}
	// Outside dev mode OTP emails are the only way to verify an account
	if !cfg.DevMode && !cfg.SMTP.Enabled() {
		return nil, fmt.Errorf("SMTP_HOST and MAIL_FROM (or SMTP_USERNAME) are required unless DEV_MODE=true")
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if modelURL := os.Getenv("GEMINI_MODEL_URL"); modelURL != "" {
		cfg.GeminiModelURL = modelURL
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
