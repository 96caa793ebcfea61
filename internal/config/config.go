package config

import (
	"fmt"
	"strings"
	"time"

	"gym_crm_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config centralises all environment and runtime configuration.
type Config struct {
	Port        string
	CORSOrigins []string

	LogLevel  string
	LogPretty bool

	DB    DBConfig
	JWT   JWTConfig
	Admin AdminSeed
	Mail  MailConfig
	Sweep SweepConfig
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
	QueryTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// AdminSeed is the account created at startup when no admin with that email exists.
type AdminSeed struct {
	Email    string
	Password string
}

type MailConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	SenderName string
}

// Enabled reports whether SMTP credentials were supplied.
func (m MailConfig) Enabled() bool {
	return m.User != "" && m.Password != ""
}

type SweepConfig struct {
	Schedule   string
	RunOnStart bool
	Timeout    time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        utils.Getenv("PORT", "8080"),
		CORSOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		LogLevel:    utils.Getenv("LOG_LEVEL", "info"),
		LogPretty:   utils.GetenvBool("LOG_PRETTY", true),
		DB: DBConfig{
			Host:         utils.Getenv("DB_HOST", "localhost"),
			Port:         utils.Getenv("DB_PORT", "5432"),
			User:         utils.Getenv("DB_USER", "gym_user"),
			Password:     utils.Getenv("DB_PASSWORD", "gym_password"),
			Name:         utils.Getenv("DB_NAME", "gym_management"),
			SSLMode:      utils.Getenv("DB_SSLMODE", "disable"),
			AutoMigrate:  utils.GetenvBool("DB_AUTO_MIGRATE", true),
			MaxOpenConns: utils.GetenvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			QueryTimeout: utils.GetenvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			Secret: utils.Getenv("JWT_SECRET", ""),
			TTL:    utils.GetenvDuration("JWT_TTL", utils.DefaultAccessTokenTTL),
		},
		Admin: AdminSeed{
			Email:    utils.Getenv("ADMIN_EMAIL", "admin@example.com"),
			Password: utils.Getenv("ADMIN_PASSWORD", "password123"),
		},
		Mail: MailConfig{
			Host:       utils.Getenv("MAIL_HOST", "smtp.gmail.com"),
			Port:       utils.GetenvInt("MAIL_PORT", 587),
			User:       utils.Getenv("MAIL_USER", ""),
			Password:   utils.Getenv("MAIL_PASS", ""),
			SenderName: utils.Getenv("MAIL_SENDER_NAME", "Gym Management"),
		},
		Sweep: SweepConfig{
			Schedule:   utils.Getenv("SWEEP_CRON", "0 8 * * *"),
			RunOnStart: utils.GetenvBool("SWEEP_ON_START", true),
			Timeout:    utils.GetenvDuration("SWEEP_TIMEOUT", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if strings.TrimSpace(c.Sweep.Schedule) == "" {
		return fmt.Errorf("SWEEP_CRON must not be empty")
	}
	if c.Mail.Port <= 0 {
		return fmt.Errorf("MAIL_PORT must be positive")
	}
	return nil
}

// DSN is the lib/pq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
