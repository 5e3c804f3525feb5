package config // package config loads application configuration from environment variables

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // APP_ENV (dev/test/prod)
	Port string // APP_PORT

	StoreDriver string // STORE_DRIVER: mysql or memory
	DBUser      string // DB_USER
	DBPass      string // DB_PASS (empty allowed)
	DBHost      string // DB_HOST
	DBPort      string // DB_PORT
	DBName      string // DB_NAME

	JWTSecret string // JWT_SECRET, verifies operator tokens

	DailyCapacity         int           // DAILY_CAPACITY, pieces per day
	MinAvailableForOrder  int           // MIN_AVAILABLE_FOR_ORDER, sold-out threshold
	ReservationMaxRetries int           // RESERVATION_MAX_RETRIES
	ReservationBackoff    time.Duration // RESERVATION_RETRY_BACKOFF, grows linearly per attempt
	NotifyTimeout         time.Duration // NOTIFY_TIMEOUT

	OpeningDate time.Time      // CATALOG_OPENING_DATE (YYYY-MM-DD)
	Location    *time.Location // TIMEZONE

	FeedDriver     string // FEED_DRIVER: redis or memory
	RabbitURL      string // RABBITMQ_URL, empty disables the broker
	TelegramToken  string // TELEGRAM_BOT_TOKEN
	TelegramChatID string // TELEGRAM_CHAT_ID
	TelegramAPI    string // TELEGRAM_API_URL
	OrderLogDir    string // ORDER_LOG_DIR

	ShutdownTimeout time.Duration // SHUTDOWN_TIMEOUT
}

// Load reads configuration values from the environment, after merging a
// .env file from the working directory when one exists. Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: ignoring unreadable .env: %v", err)
	}

	cfg := Config{
		Env:                   must("APP_ENV"),
		Port:                  must("APP_PORT"),
		StoreDriver:           envStr("STORE_DRIVER", StoreMySQL),
		JWTSecret:             must("JWT_SECRET"),
		DailyCapacity:         envInt("DAILY_CAPACITY", 648),
		MinAvailableForOrder:  envInt("MIN_AVAILABLE_FOR_ORDER", 6),
		ReservationMaxRetries: envInt("RESERVATION_MAX_RETRIES", 5),
		ReservationBackoff:    envDur("RESERVATION_RETRY_BACKOFF", 20*time.Millisecond),
		NotifyTimeout:         envDur("NOTIFY_TIMEOUT", 10*time.Second),
		FeedDriver:            envStr("FEED_DRIVER", "redis"),
		RabbitURL:             os.Getenv("RABBITMQ_URL"),
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:        os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramAPI:           envStr("TELEGRAM_API_URL", "https://api.telegram.org"),
		OrderLogDir:           envStr("ORDER_LOG_DIR", "logs"),
		ShutdownTimeout:       envDur("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case StoreMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}

	if cfg.DailyCapacity < 1 {
		log.Fatalf("DAILY_CAPACITY must be positive, got %d", cfg.DailyCapacity)
	}

	tz := envStr("TIMEZONE", "Africa/Casablanca")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", tz, err)
	}
	cfg.Location = loc

	opening := envStr("CATALOG_OPENING_DATE", "2025-11-03")
	cfg.OpeningDate, err = time.ParseInLocation("2006-01-02", opening, loc)
	if err != nil {
		log.Fatalf("invalid CATALOG_OPENING_DATE %q: %v", opening, err)
	}
	return cfg
}

// OperatorTokenTTL returns OPERATOR_TOKEN_TTL_MIN, the lifetime in
// minutes of tokens minted by optoken.
func OperatorTokenTTL() int { return envInt("OPERATOR_TOKEN_TTL_MIN", 12*60) }

// IsProd reports whether the service runs in production.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
