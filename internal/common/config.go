package common

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Pipeline PipelineConfig
	Model    ModelConfig
	Database DatabaseConfig
	Server   ServerConfig
	Queue    QueueConfig
	Storage  StorageConfig
	Log      LogConfig
}

// PipelineConfig holds job workspace and artifact settings
type PipelineConfig struct {
	WorkDir       string
	ArtifactDir   string
	ModelTimeout  time.Duration
	MaxUploadSize int64
	KeepWorkspace bool
}

// ModelConfig selects and configures the external model adapter
type ModelConfig struct {
	Provider        string // "gemini" | "command"
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	HTTPTimeout     time.Duration
	Command         string // used when Provider == "command"
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string // "sqlite" | "postgres"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
	WatchDir    string // optional inbox directory processed by the daemon
}

// QueueConfig sizes the batch worker pool
type QueueConfig struct {
	Workers int
	Size    int
}

// StorageConfig enables mirroring raw responses to S3 when S3Bucket is set
type StorageConfig struct {
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			WorkDir:       getEnv("WORK_DIR", "./tmp/jobs"),
			ArtifactDir:   getEnv("ARTIFACT_DIR", "./output"),
			ModelTimeout:  getEnvAsDuration("MODEL_TIMEOUT", 5*time.Minute),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
			KeepWorkspace: getEnvAsBool("KEEP_WORKSPACE", false),
		},
		Model: ModelConfig{
			Provider:        strings.ToLower(getEnv("MODEL_PROVIDER", "gemini")),
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			BaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:     getEnvAsFloat32("MODEL_TEMPERATURE", 0.0),
			MaxOutputTokens: getEnvAsInt("MODEL_MAX_OUTPUT_TOKENS", 8192),
			HTTPTimeout:     getEnvAsDuration("MODEL_HTTP_TIMEOUT", 4*time.Minute),
			Command:         getEnv("MODEL_COMMAND", ""),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:             getEnv("DB_URL", "./output/jobs.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			WatchDir:    getEnv("WATCH_DIR", ""),
		},
		Queue: QueueConfig{
			Workers: getEnvAsInt("QUEUE_WORKERS", 4),
			Size:    getEnvAsInt("QUEUE_SIZE", 64),
		},
		Storage: StorageConfig{
			S3Bucket:    getEnv("ARTIFACT_S3_BUCKET", ""),
			S3Prefix:    getEnv("ARTIFACT_S3_PREFIX", ""),
			S3Region:    getEnv("ARTIFACT_S3_REGION", "us-east-1"),
			S3Endpoint:  getEnv("ARTIFACT_S3_ENDPOINT", ""),
			S3AccessKey: getEnv("ARTIFACT_S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("ARTIFACT_S3_SECRET_KEY", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "gemini":
		if c.Model.APIKey == "" {
			return NewAppError(CodeConfig, "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	case "command":
		if strings.TrimSpace(c.Model.Command) == "" {
			return NewAppError(CodeConfig, "MODEL_COMMAND is required when MODEL_PROVIDER=command", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "MODEL_PROVIDER must be gemini or command", ErrInvalidInput)
	}
	if c.Pipeline.WorkDir == "" || c.Pipeline.ArtifactDir == "" {
		return NewAppError(CodeConfig, "WORK_DIR and ARTIFACT_DIR are required", ErrInvalidInput)
	}
	if c.Pipeline.ModelTimeout <= 0 {
		return NewAppError(CodeConfig, "MODEL_TIMEOUT must be positive", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError(CodeConfig, "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL / LOG_FORMAT.
func (c LogConfig) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger writing to w; the CLI logs to stderr so stdout stays JSON.
func (c LogConfig) NewLoggerTo(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
