package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		GRPCPort    int // 0 отключает gRPC health сервер
		Environment string
	}
	Backend struct {
		Enabled       bool   // USE_WASM
		Kind          string // wasm или http
		ArtifactPath  string
		URL           string
		Timeout       time.Duration
		FallbackSteps int
	}
	Cache struct {
		Size int // 0 и меньше: кэш без ограничения размера
	}
	RateLimit struct {
		RequestsPerMinute int
		SweepInterval     time.Duration
	}
	Auth struct {
		APIKey string // пустой ключ отключает проверку X-API-Key
	}
	CORS struct {
		Origins []string
	}
	Database struct {
		Enabled  bool
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Logging struct {
		Level string
	}
}

// Типы бэкендов
const (
	BackendWasm = "wasm"
	BackendHTTP = "http"
)

// LoadConfig загружает конфигурацию из файла .env (если есть) и переменных окружения
func LoadConfig() *Config {
	// Переменные окружения имеют приоритет над .env
	_ = godotenv.Load()

	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.GRPCPort = getEnvInt("GRPC_PORT", 9090)
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация бэкенда поиска пути
	cfg.Backend.Enabled = getEnvBool("USE_WASM", true)
	cfg.Backend.Kind = strings.ToLower(getEnv("BACKEND_KIND", BackendWasm))
	cfg.Backend.ArtifactPath = getEnv("WASM_PATH", "wasm/pkg/naviwasm_bg.wasm")
	cfg.Backend.URL = getEnv("BACKEND_URL", "http://localhost:8001")
	cfg.Backend.Timeout = time.Duration(getEnvInt("BACKEND_TIMEOUT_MS", 2000)) * time.Millisecond
	cfg.Backend.FallbackSteps = getEnvInt("FALLBACK_STEPS", 10)

	cfg.Cache.Size = getEnvInt("CACHE_SIZE", 10000)

	// Ограничение частоты запросов
	cfg.RateLimit.RequestsPerMinute = getEnvInt("MAX_REQUESTS_PER_MINUTE", 100)
	cfg.RateLimit.SweepInterval = time.Duration(getEnvInt("RATE_LIMIT_SWEEP_SECONDS", 60)) * time.Second

	cfg.Auth.APIKey = getEnv("API_KEY", "")
	cfg.CORS.Origins = getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"})

	// Конфигурация базы данных истории маршрутов
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", false)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "navigation")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool понимает true/false/1/0 в любом регистре
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
