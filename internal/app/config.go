package app

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lifeease/lifeease-client/internal/pkg/envutil"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
	"github.com/lifeease/lifeease-client/internal/platform/backend"
)

// TimeoutConfig holds per-endpoint budgets in seconds. Zero means the backend
// contract default (health 5s, text 60s, vision/chat-with-image 180s, chat
// 60s, history and reset 10s).
type TimeoutConfig struct {
	HealthSeconds     int `yaml:"health_seconds"`
	AnalyzeSeconds    int `yaml:"analyze_seconds"`
	VisionSeconds     int `yaml:"vision_seconds"`
	ChatSeconds       int `yaml:"chat_seconds"`
	ChatVisionSeconds int `yaml:"chat_vision_seconds"`
	HistorySeconds    int `yaml:"history_seconds"`
	ResetSeconds      int `yaml:"reset_seconds"`
}

type Config struct {
	BaseURL   string `yaml:"base_url"`
	StatePath string `yaml:"state_path"`
	LogMode   string `yaml:"log_mode"`

	// SystemPrompt seeds the stored client-wide default when none is set yet.
	SystemPrompt string `yaml:"system_prompt"`

	Timeouts TimeoutConfig `yaml:"timeouts"`
}

func defaultConfig() Config {
	statePath := "lifeease.db"
	if home, err := os.UserHomeDir(); err == nil {
		statePath = filepath.Join(home, ".lifeease", "state.db")
	}
	return Config{
		BaseURL:   "http://localhost:8000",
		StatePath: statePath,
		LogMode:   "development",
	}
}

// LoadConfig reads the optional YAML config file (LIFEEASE_CONFIG, falling
// back to ~/.lifeease/config.yaml), then applies env overrides on top.
func LoadConfig(log *logger.Logger) Config {
	cfg := defaultConfig()

	path := envutil.String("LIFEEASE_CONFIG", "")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".lifeease", "config.yaml")
		}
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				log.Warn("config file unreadable, using defaults", "path", path, "error", err)
			}
		}
	}

	cfg.BaseURL = envutil.String("LIFEEASE_API_BASE_URL", cfg.BaseURL)
	cfg.StatePath = envutil.String("LIFEEASE_STATE_PATH", cfg.StatePath)
	cfg.LogMode = envutil.String("LIFEEASE_LOG_MODE", cfg.LogMode)
	cfg.SystemPrompt = envutil.String("LIFEEASE_SYSTEM_PROMPT", cfg.SystemPrompt)
	cfg.Timeouts.ChatSeconds = envutil.Int("LIFEEASE_CHAT_TIMEOUT_SECONDS", cfg.Timeouts.ChatSeconds)
	cfg.Timeouts.ChatVisionSeconds = envutil.Int("LIFEEASE_CHAT_VISION_TIMEOUT_SECONDS", cfg.Timeouts.ChatVisionSeconds)

	return cfg
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// BackendConfig maps the client config onto backend budgets.
func (c Config) BackendConfig() backend.Config {
	out := backend.DefaultConfig(c.BaseURL)
	if c.Timeouts.HealthSeconds > 0 {
		out.HealthTimeout = seconds(c.Timeouts.HealthSeconds)
	}
	if c.Timeouts.AnalyzeSeconds > 0 {
		out.AnalyzeTimeout = seconds(c.Timeouts.AnalyzeSeconds)
	}
	if c.Timeouts.VisionSeconds > 0 {
		out.VisionTimeout = seconds(c.Timeouts.VisionSeconds)
	}
	if c.Timeouts.ChatSeconds > 0 {
		out.ChatTimeout = seconds(c.Timeouts.ChatSeconds)
	}
	if c.Timeouts.ChatVisionSeconds > 0 {
		out.ChatVisionTimeout = seconds(c.Timeouts.ChatVisionSeconds)
	}
	if c.Timeouts.HistorySeconds > 0 {
		out.HistoryTimeout = seconds(c.Timeouts.HistorySeconds)
	}
	if c.Timeouts.ResetSeconds > 0 {
		out.ResetTimeout = seconds(c.Timeouts.ResetSeconds)
	}
	return out
}
