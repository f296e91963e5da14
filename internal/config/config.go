package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL   = "http://localhost:8000"
	DefaultHTTPAddr = ":3000"
	DefaultDBPath   = "data/vocab.db"
)

// Config holds process-wide settings read from the environment
type Config struct {
	// Base URL of the vocabulary backend
	APIURL string
	// Timeout applied to every backend request
	HTTPTimeout time.Duration
	// Listen address of the web front-end
	HTTPAddr string
	// Origins allowed to read the JSON state endpoint
	AllowedOrigins []string
	// Telegram front-end is enabled when the token is set
	TelegramToken string
	// Postgres DSN. When empty the sqlite file at DBPath is used.
	DatabaseURL string
	DBPath      string
	// Practice reminders
	SchedulerEnabled  bool
	ReminderStartHour int
	ReminderEndHour   int
	// Web sessions unused for this long are dropped
	SessionIdleTimeout time.Duration
	LogMode            string
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only
func FromEnv() *Config {
	return &Config{
		APIURL:             strings.TrimRight(String("API_URL", DefaultAPIURL), "/"),
		HTTPTimeout:        Duration("HTTP_TIMEOUT", 60*time.Second),
		HTTPAddr:           String("HTTP_ADDR", DefaultHTTPAddr),
		AllowedOrigins:     List("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TelegramToken:      String("TELEGRAM_BOT_TOKEN", ""),
		DatabaseURL:        String("DATABASE_URL", ""),
		DBPath:             String("DB_PATH", DefaultDBPath),
		SchedulerEnabled:   os.Getenv("ENABLE_SCHEDULER") != "false",
		ReminderStartHour:  Hour("REMINDER_START_HOUR", 8),
		ReminderEndHour:    Hour("REMINDER_END_HOUR", 22),
		SessionIdleTimeout: Duration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		LogMode:            String("LOG_MODE", "dev"),
	}
}

func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Hour reads an hour of day, falling back to def outside 0-23
func Hour(name string, def int) int {
	h := Int(name, def)
	if h < 0 || h > 23 {
		return def
	}
	return h
}

// Duration accepts Go duration syntax ("30s") or plain seconds ("30")
func Duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func List(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
