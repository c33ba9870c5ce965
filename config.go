package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Authentication strategies selectable with AUTH_STRATEGY.
const (
	authStrategySession = "session"
	authStrategyJWT     = "jwt"
	authStrategyDev     = "dev"
)

// appConfig is everything the server reads from the environment at startup.
type appConfig struct {
	Port          string
	DBURL         string
	SessionSecret string
	AuthStrategy  string
	DevUserID     int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	USDAAPIKey    string
	USDABaseURL   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	Location  *time.Location
	LogLevel  string
	LogFormat string
}

// requiredEnv lists the variables whose absence is a fatal startup error.
var requiredEnv = []string{
	"DB_URL",
	"SESSION_SECRET",
	"OPENAI_API_KEY",
	"USDA_API_KEY",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
}

// loadConfig reads .env (if present) and the process environment.
// Every missing required variable is reported in one error.
func loadConfig() (appConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return appConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

// configFromEnv builds an appConfig from getenv. Split out so tests can feed a map.
func configFromEnv(getenv func(string) string) (appConfig, error) {
	var missing []string
	for _, key := range requiredEnv {
		if strings.TrimSpace(getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return appConfig{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := appConfig{
		Port:               envOr(getenv, "PORT", "3000"),
		DBURL:              getenv("DB_URL"),
		SessionSecret:      getenv("SESSION_SECRET"),
		AuthStrategy:       envOr(getenv, "AUTH_STRATEGY", authStrategySession),
		OpenAIAPIKey:       getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      strings.TrimRight(envOr(getenv, "OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		OpenAIModel:        envOr(getenv, "OPENAI_MODEL", "gpt-4o-mini"),
		USDAAPIKey:         getenv("USDA_API_KEY"),
		USDABaseURL:        strings.TrimRight(envOr(getenv, "USDA_BASE_URL", "https://api.nal.usda.gov/fdc"), "/"),
		GoogleClientID:     getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  envOr(getenv, "GOOGLE_REDIRECT_URL", "http://localhost:3000/api/auth/google/callback"),
		LogLevel:           envOr(getenv, "LOG_LEVEL", "info"),
		LogFormat:          envOr(getenv, "LOG_FORMAT", "json"),
	}

	switch cfg.AuthStrategy {
	case authStrategySession, authStrategyJWT:
	case authStrategyDev:
		id, err := strconv.Atoi(getenv("DEV_USER_ID"))
		if err != nil || id <= 0 {
			return appConfig{}, fmt.Errorf("AUTH_STRATEGY=dev requires a positive DEV_USER_ID")
		}
		cfg.DevUserID = id
	default:
		return appConfig{}, fmt.Errorf("unknown AUTH_STRATEGY %q (want session, jwt or dev)", cfg.AuthStrategy)
	}

	loc, err := time.LoadLocation(envOr(getenv, "NUTRITION_TZ", "UTC"))
	if err != nil {
		return appConfig{}, fmt.Errorf("invalid NUTRITION_TZ: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}
