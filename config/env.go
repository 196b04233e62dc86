package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStoreBaseURL   = "https://play.google.com"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultIntelTimeoutMS = 5000
	DefaultReservedPrefix = "com.betamax"
)

// Config holds the recon settings resolved from the environment.
type Config struct {
	StoreBaseURL     string
	UserAgent        string
	IntelTimeout     time.Duration
	ReservedPrefixes []string
	Concurrency      int
	GitHubToken      string
	ADBSerial        string
}

// LoadEnv loads environment variables from .env files
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env", ".env.dev"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
	} else {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// Load resolves Config from the process environment.
func Load() Config {
	timeoutMS := GetEnvInt("RECON_INTEL_TIMEOUT_MS", DefaultIntelTimeoutMS)
	if timeoutMS <= 0 {
		timeoutMS = DefaultIntelTimeoutMS
	}
	concurrency := GetEnvInt("RECON_CONCURRENCY", 1)
	if concurrency < 1 {
		concurrency = 1
	}
	return Config{
		StoreBaseURL:     strings.TrimSuffix(GetEnv("RECON_STORE_BASE_URL", DefaultStoreBaseURL), "/"),
		UserAgent:        GetEnv("RECON_USER_AGENT", DefaultUserAgent),
		IntelTimeout:     time.Duration(timeoutMS) * time.Millisecond,
		ReservedPrefixes: GetEnvList("RECON_RESERVED_PREFIXES", []string{DefaultReservedPrefix}),
		Concurrency:      concurrency,
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		ADBSerial:        os.Getenv("ADB_SERIAL"),
	}
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvList splits a comma separated variable, dropping blanks.
func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// GetLogLevel gets the log level from environment
func GetLogLevel() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
