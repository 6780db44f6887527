package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"mongo"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	AllowedOrigins []string      `env:"API_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	MongoURI         string        `env:"MONGO_URI" envDefault:"mongodb://mongo:27017"`
	MongoDatabase    string        `env:"MONGO_DB" envDefault:"survey-manager"`
	SurveyCollection string        `env:"SURVEY_COLLECTION" envDefault:"surveys"`
	Timeout          time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`

	DatabaseURL       string `env:"DATABASE_URL"`
	MySQLMaxOpenConns int    `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"10"`

	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	JWTIssuer string        `env:"AUTH_JWT_ISSUER" envDefault:"survey-manager-api"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	JWTLeeway time.Duration `env:"AUTH_JWT_LEEWAY" envDefault:"30s"`

	// TokenUsernameOverride lets GET /token?username= pick any subject. Development only.
	TokenUsernameOverride bool `env:"AUTH_TOKEN_DEV_OVERRIDE" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ServerLog *logrus.Logger `env:"-"`
}

// Load reads an optional .env file and the environment and returns a validated Config.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins, []string{"*"})
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return Config{}, err
	}
	cfg.ServerLog = logger

	cfg.ServerLog.WithFields(logrus.Fields{
		"addr":   cfg.Addr,
		"driver": cfg.StoreDriver,
		"issuer": cfg.JWTIssuer,
	}).Info("loaded config")

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			errs = append(errs, errors.New("MONGO_URI must be configured for the mongo driver"))
		}
	case DriverMySQL:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL must be configured for the mysql driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be configured"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.JWTLeeway < 0 {
		errs = append(errs, errors.New("AUTH_JWT_LEEWAY must not be negative"))
	}
	return errors.Join(errs...)
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logger.SetLevel(parsed)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown LOG_FORMAT %q", format)
	}
	return logger, nil
}

func cleanList(values, fallback []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return cleaned
}
