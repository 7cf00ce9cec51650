package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config lives in ~/.recall/config.yaml. The core itself only receives the
// resolved paths and defaults; parsing stays up here with the CLI wiring.
type Config struct {
	DBPath      string  `yaml:"db_path"`
	IndexPath   string  `yaml:"index_path"`
	Backend     string  `yaml:"index_backend"`
	SearchLimit int     `yaml:"search_limit"`
	MinScore    float64 `yaml:"min_score"`

	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Chat       ChatConfig       `yaml:"chat,omitempty"`
}

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"`
	ModelPath string `yaml:"model_path,omitempty"`
	Dimension int    `yaml:"dimension"`
	MaxTokens int    `yaml:"max_tokens"`
}

type ChatConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

func DefaultConfig() *Config {
	home := HomeDir()
	return &Config{
		DBPath:      filepath.Join(home, "recall.db"),
		IndexPath:   filepath.Join(home, "index"),
		Backend:     BackendAuto,
		SearchLimit: 10,
		MinScore:    0.0,
		Embeddings: EmbeddingsConfig{
			Backend:   "onnx",
			ModelPath: filepath.Join(home, "models", "model.onnx"),
			Dimension: 384,
			MaxTokens: 256,
		},
		Chat: ChatConfig{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
		},
	}
}

// HomeDir returns the recall data directory, honoring RECALL_HOME.
func HomeDir() string {
	if dir := os.Getenv("RECALL_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".recall"
	}
	return filepath.Join(home, ".recall")
}

func ConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(HomeDir(), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// NewEmbedderFromConfig builds the configured embedding gateway. The ONNX
// path is wrapped in a lazy loader so commands that never embed anything
// skip the model load entirely.
func NewEmbedderFromConfig(cfg *Config) Embedder {
	switch cfg.Embeddings.Backend {
	case "wordbag":
		return NewWordBagEmbedder(cfg.Embeddings.Dimension)
	default:
		ec := cfg.Embeddings
		return NewLazyEmbedder(ec.Dimension, func() (Embedder, error) {
			return NewONNXEmbedder(ec.ModelPath, ec.Dimension, ec.MaxTokens)
		})
	}
}
