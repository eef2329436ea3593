package llm

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the gateway endpoint configuration, read from LLM_* env vars.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:    strings.TrimSuffix(os.Getenv("LLM_BASE_URL"), "/"),
		APIKey:     os.Getenv("LLM_API_KEY"),
		Model:      os.Getenv("LLM_MODEL"),
		Timeout:    20 * time.Second,
		MaxRetries: 3,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.gptsapi.net"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if v, err := strconv.Atoi(os.Getenv("LLM_TIMEOUT_MS")); err == nil && v > 0 {
		cfg.Timeout = time.Duration(v) * time.Millisecond
	}
	if v, err := strconv.Atoi(os.Getenv("LLM_MAX_RETRIES")); err == nil && v > 0 {
		cfg.MaxRetries = v
	}
	return cfg
}

// CompletionsURL normalizes the base URL so requests always hit
// /v1/chat/completions whether or not the base already ends in /v1.
func (c Config) CompletionsURL() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}
