// Package config loads application configuration with multi-source
// priority: environment variables over the config file over defaults.
// The config file lives at ~/.halcyon/config.yaml and is optional.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates OPENAI_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidChunking indicates the splitter settings are unusable.
	ErrInvalidChunking = errors.New("invalid chunking settings")

	// ErrInvalidHistoryLimit indicates the history window is out of range.
	ErrInvalidHistoryLimit = errors.New("invalid history limit")

	// ErrMissingCorpus indicates no corpus source is configured.
	ErrMissingCorpus = errors.New("no corpus source configured")
)

// Config stores application configuration.
type Config struct {
	// Storage
	DatabasePath string `mapstructure:"database_path"`

	// Corpus sources and index persistence
	CorpusPDF string `mapstructure:"corpus_pdf"`
	CorpusCSV string `mapstructure:"corpus_csv"`
	IndexDir  string `mapstructure:"index_dir"`

	// Model configuration
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"` // SENSITIVE: never logged

	// Conversation tuning
	HistoryLimit int `mapstructure:"history_limit"`
	TopK         int `mapstructure:"top_k"`
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration and validates it immediately.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".halcyon")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(configDir string) {
	viper.SetDefault("database_path", filepath.Join(configDir, "halcyon.db"))
	viper.SetDefault("index_dir", filepath.Join(configDir, "index"))

	viper.SetDefault("model_name", "gpt-4o-mini")
	viper.SetDefault("embedder_model", "text-embedding-3-small")

	viper.SetDefault("history_limit", 10)
	viper.SetDefault("top_k", 4)
	viper.SetDefault("chunk_size", 1000)
	viper.SetDefault("chunk_overlap", 200)

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("database_path", "HALCYON_DATABASE_PATH")
	mustBind("corpus_pdf", "HALCYON_CORPUS_PDF")
	mustBind("corpus_csv", "HALCYON_CORPUS_CSV")
	mustBind("index_dir", "HALCYON_INDEX_DIR")
	mustBind("model_name", "HALCYON_MODEL_NAME")
	mustBind("log_level", "HALCYON_LOG_LEVEL")
}

// Validate checks structural settings. API key and corpus presence are
// checked separately because only some commands need them.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if c.IndexDir == "" {
		return errors.New("index directory is required")
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, c.ChunkSize, c.ChunkOverlap)
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > 1000 {
		return fmt.Errorf("%w: %d", ErrInvalidHistoryLimit, c.HistoryLimit)
	}
	return nil
}

// RequireAPIKey fails when no OpenAI key is configured. Called by
// commands that talk to the model.
func (c *Config) RequireAPIKey() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}
	return nil
}

// RequireCorpus fails when the index cannot be built or loaded: no
// persisted index and no source files to build one from.
func (c *Config) RequireCorpus() error {
	if c.CorpusPDF == "" && c.CorpusCSV == "" {
		return fmt.Errorf("%w: set corpus_pdf or corpus_csv", ErrMissingCorpus)
	}
	return nil
}
