package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by MAESTRO_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("MAESTRO_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// CompletionProvider returns the configured completion provider.
// Defaults to "gemini" if not set.
// Valid values: gemini, openai, mock
func CompletionProvider() string {
	p := os.Getenv("COMPLETION_PROVIDER")
	if p == "" {
		return "gemini"
	}
	return p
}

// CompletionAPIKey returns the API key for the configured completion provider.
func CompletionAPIKey() string {
	switch CompletionProvider() {
	case "openai":
		return OpenAIAPIKey()
	case "mock":
		return ""
	default:
		return GeminiAPIKey()
	}
}

// DefaultModel is the model identifier stamped onto newly created agents.
func DefaultModel() string {
	m := os.Getenv("DEFAULT_MODEL")
	if m == "" {
		return "gemini-2.0-flash"
	}
	return m
}

// FlowServerURL is the base URL of the external flow server backing
// MODEL_FLOW tools. Empty disables flow tools.
func FlowServerURL() string {
	return os.Getenv("FLOW_SERVER_URL")
}

// CompletionTimeout bounds each completion call made by the pipeline.
// Defaults to 30s.
func CompletionTimeout() time.Duration {
	return durationEnv("COMPLETION_TIMEOUT_SECONDS", 30*time.Second)
}

// ToolTimeout bounds each tool dispatch made by the pipeline.
// Defaults to 15s.
func ToolTimeout() time.Duration {
	return durationEnv("TOOL_TIMEOUT_SECONDS", 15*time.Second)
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(os.Getenv(key))
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}
