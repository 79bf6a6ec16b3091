package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreDriver string

const (
	StoreSQLite   StoreDriver = "sqlite"
	StorePostgres StoreDriver = "postgres"
	StoreRedis    StoreDriver = "redis"
	StoreMemory   StoreDriver = "memory"
	StoreNone     StoreDriver = "none" // no durable storage available
)

type Config struct {
	// Client side
	APIBaseURL  string
	HTTPTimeout time.Duration

	StoreDriver StoreDriver
	StoreDSN    string // sqlite file DSN or postgres URL

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Dev backend
	DevHTTPAddr    string
	AuthHMACSecret string
	CORSOrigins    []string
	AdminEmail     string
	AdminPassword  string
	DevOTPCode     string
	DevSeed        bool // load the sample question bank on start
}

// FromEnv builds a Config from the process environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	return Config{
		APIBaseURL:  strings.TrimSuffix(envOr("API_BASE_URL", "http://localhost:5001/api/v1"), "/"),
		HTTPTimeout: envDuration("HTTP_TIMEOUT", 30*time.Second),

		StoreDriver: StoreDriver(envOr("STORE_DRIVER", string(StoreSQLite))),
		StoreDSN:    envOr("STORE_DSN", defaultStoreDSN()),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		RedisPrefix:   envOr("REDIS_PREFIX", "langassess:"),

		DevHTTPAddr:    envOr("DEV_HTTP_ADDR", ":5001"),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		AdminEmail:     envOr("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:  envOr("ADMIN_PASSWORD", "admin"),
		DevOTPCode:     envOr("DEV_OTP_CODE", "123456"),
		DevSeed:        envBool("DEV_SEED", true),
	}
}

// defaultStoreDSN keeps the sqlite file next to the user's other state.
func defaultStoreDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	path := filepath.Join(dir, "langassess", "state.db")
	return "file:" + path + "?mode=rwc&_pragma=busy_timeout(5000)"
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not an int, using %d", k, v, def)
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a duration, using %s", k, v, def)
		return def
	}
	return d
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
