// Package config provides runtime configuration values for the service.
package config

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model backends.
const (
	BackendFile = "file"
	BackendHTTP = "http"
)

// Config holds configuration knobs for the HTTP server and its startup resources.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level

	ModelBackend        string
	ClassifierModelPath string
	RegressorModelPath  string
	MLServiceURL        string
	MLTimeout           time.Duration

	DatasetPath  string
	RegionColumn string
	RegionsDSN   string
	RegionsTable string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func portenv(key string, def int) int {
	p := atoienv(key, def)
	if p <= 0 || p > 65535 {
		return def
	}
	return p
}

func levelenv(key string, def slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(getenv(key, def.String()))); err != nil {
		return def
	}
	return l
}

// LoadDotenv loads variables from the given .env files (default ".env")
// without overriding anything already set. Missing files are ignored.
func LoadDotenv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load collects configuration from environment with defaults.
func Load() Config {
	backend := strings.ToLower(getenv("MODEL_BACKEND", BackendFile))
	if backend != BackendHTTP {
		backend = BackendFile
	}
	return Config{
		HTTPAddr:            net.JoinHostPort("0.0.0.0", strconv.Itoa(portenv("PORT", 5000))),
		ShutdownTimeout:     durenvs("SHUTDOWN_TIMEOUT", 10),
		LogLevel:            levelenv("LOG_LEVEL", slog.LevelInfo),
		ModelBackend:        backend,
		ClassifierModelPath: getenv("CLASSIFIER_MODEL_PATH", "avocado_classification_model.json"),
		RegressorModelPath:  getenv("REGRESSOR_MODEL_PATH", "avocado_regression_model.json"),
		MLServiceURL:        getenv("ML_SERVICE_URL", "http://localhost:6000"),
		MLTimeout:           durenvms("ML_TIMEOUT_MS", 10000),
		DatasetPath:         getenv("DATASET_PATH", "avocado.csv"),
		RegionColumn:        getenv("REGION_COLUMN", "region"),
		RegionsDSN:          getenv("REGIONS_DSN", ""),
		RegionsTable:        getenv("REGIONS_TABLE", "avocado"),
	}
}
