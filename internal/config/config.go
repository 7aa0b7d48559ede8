package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "YTRESOLVE_"

// Config is the runtime configuration of the ytresolve binaries.
type Config struct {
	Port               string
	LogLevel           string
	LogFormat          string
	ProxyURL           string
	PlayerJSBaseURL    string
	ProgramCacheTTL    time.Duration
	MaxParallelReplays int
	ProbeRetries       int
	ProbeRPS           float64
	RequestTimeout     time.Duration
}

// Load reads .env files into the process environment. With no paths, ".env"
// is used. A missing file returns an error callers may ignore.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv builds a Config from YTRESOLVE_* variables, falling back to
// defaults for unset or invalid values.
func FromEnv() Config {
	return Config{
		Port:               GetEnv(envPrefix+"PORT", "8080"),
		LogLevel:           GetEnv(envPrefix+"LOG_LEVEL", "info"),
		LogFormat:          GetEnv(envPrefix+"LOG_FORMAT", "json"),
		ProxyURL:           GetEnv(envPrefix+"PROXY_URL", ""),
		PlayerJSBaseURL:    GetEnv(envPrefix+"PLAYER_JS_BASE_URL", ""),
		ProgramCacheTTL:    GetEnvDuration(envPrefix+"PROGRAM_CACHE_TTL", 6*time.Hour),
		MaxParallelReplays: GetEnvInt(envPrefix+"MAX_PARALLEL_REPLAYS", 4),
		ProbeRetries:       GetEnvInt(envPrefix+"PROBE_RETRIES", 2),
		ProbeRPS:           GetEnvFloat(envPrefix+"PROBE_RPS", 0),
		RequestTimeout:     GetEnvDuration(envPrefix+"REQUEST_TIMEOUT", 30*time.Second),
	}
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func GetEnvFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}

// GetEnvDuration accepts Go duration strings ("90s") or plain seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
