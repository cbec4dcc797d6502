package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ControlAddr        string
	ShareBindHost      string
	SharePort          int
	ShareHost          string
	AddressStrategy    string
	ShareSubnets       []string
	ProbeAddr          string
	ChunkSize          int64
	MaxStreams         int // 0 = unlimited
	ShutdownTimeout    time.Duration
	LogLevel           string
	LogFormat          string
	HistoryBackend     string
	HistoryLimit       int
	MongoURI           string
	MongoDatabase      string
	MongoCollection    string
	RedisURL           string
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func LoadConfig() Config {
	return Config{
		ControlAddr:        getEnv("CONTROL_ADDR", "127.0.0.1:3001"),
		ShareBindHost:      strings.TrimSpace(os.Getenv("SHARE_BIND_HOST")),
		SharePort:          int(getEnvInt64("SHARE_PORT", 3000)),
		ShareHost:          strings.TrimSpace(os.Getenv("SHARE_HOST")),
		AddressStrategy:    strings.ToLower(getEnv("SHARE_ADDRESS_STRATEGY", "auto")),
		ShareSubnets:       getEnvList("SHARE_SUBNETS"),
		ProbeAddr:          getEnv("SHARE_PROBE_ADDR", "192.0.2.1:9"),
		ChunkSize:          getEnvPositiveInt64("SHARE_CHUNK_SIZE", 1_000_000),
		MaxStreams:         int(getEnvInt64("SHARE_MAX_STREAMS", 0)),
		ShutdownTimeout:    time.Duration(getEnvPositiveInt64("SHARE_SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		HistoryBackend:     strings.ToLower(getEnv("HISTORY_BACKEND", "memory")),
		HistoryLimit:       int(getEnvPositiveInt64("HISTORY_LIMIT", 100)),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DB", "nssplayer"),
		MongoCollection:    getEnv("MONGO_COLLECTION", "share_history"),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst:     int(getEnvInt64("RATE_LIMIT_BURST", 100)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvPositiveInt64(key string, fallback int64) int64 {
	if v := getEnvInt64(key, fallback); v > 0 {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
