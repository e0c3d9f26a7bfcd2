package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Gemini client.
type Config struct {
	APIKey           string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL          string        // default https://generativelanguage.googleapis.com/v1beta
	Model            string        // e.g., "gemini-2.0-flash"
	Temperature      float32       // 0..2
	MaxOutputTokens  int           // 0 means provider default
	Timeout          time.Duration // http client timeout
	MaxResponseBytes int64         // 0 means llm.DefaultMaxResponseBytes
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
