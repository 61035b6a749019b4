package config

import (
	"log"
	"os"
	"strconv"

	"github.com/razorvilla/calendar-app-sub001/pkg/constant"
)

type Config struct {
	Env               string
	Port              string
	DBURL             string
	AccessTokenSecret string
	ResetTokenSecret  string
	AccessExpiryMin   int
	RefreshExpiryMin  int
	ResetExpiryMin    int
	VerifyExpiryMin   int

	LoginMaxAttempts   int
	LockoutDurationMin int

	TOTPIssuer string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	AppBaseURL   string
}

func Load() *Config {
	return &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DBURL:              mustGetEnv("DB_URL"),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		ResetTokenSecret:   mustGetEnv("RESET_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", constant.DefaultAccessExpiryMin),
		RefreshExpiryMin:   getEnvAsInt("REFRESH_TOKEN_EXPIRY", constant.DefaultRefreshExpiryMin),
		ResetExpiryMin:     getEnvAsInt("RESET_TOKEN_EXPIRY", constant.DefaultResetExpiryMin),
		VerifyExpiryMin:    getEnvAsInt("VERIFY_TOKEN_EXPIRY", constant.DefaultVerifyExpiryMin),
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", constant.DefaultLoginMaxAttempts),
		LockoutDurationMin: getEnvAsInt("LOCKOUT_DURATION", constant.DefaultLockoutDurationMin),
		TOTPIssuer:         getEnv("TOTP_ISSUER", "CalendarApp"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		FromEmail:          getEnv("FROM_EMAIL", "no-reply@calendar.local"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:3000"),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
