// Package file loads and persists AI4All settings as a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// DefaultConfigDir is the directory under the user's home where the
// config file and knowledge bases live.
const DefaultConfigDir = ".ai4all"

// configFileName is the settings file inside the config directory.
const configFileName = "config.toml"

// Settings is the on-disk configuration.
type Settings struct {
	Data      DataSettings      `toml:"data"`
	Retrieval RetrievalSettings `toml:"retrieval"`
	Encoder   EncoderSettings   `toml:"encoder"`
}

// DataSettings locates the knowledge base.
type DataSettings struct {
	// Dir is the directory holding knowledge base files.
	Dir string `toml:"dir"`

	// KnowledgeBase is the database file name inside Dir.
	KnowledgeBase string `toml:"knowledge_base"`

	// InMemory keeps the knowledge base in memory instead of on disk.
	InMemory bool `toml:"in_memory"`
}

// RetrievalSettings mirrors domain.RetrievalConfig.
type RetrievalSettings struct {
	Dimension int    `toml:"dimension"`
	ChunkSize int    `toml:"chunk_size"`
	Overlap   bool   `toml:"overlap"`
	Pooling   string `toml:"pooling"`
	Limit     int    `toml:"limit"`
}

// EncoderSettings configures the remote encoder client.
type EncoderSettings struct {
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxQueuedBatches  int     `toml:"max_queued_batches"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	cfg := domain.DefaultRetrievalConfig()
	return Settings{
		Data: DataSettings{
			KnowledgeBase: "knowledge.db",
		},
		Retrieval: RetrievalSettings{
			Dimension: cfg.Dimension,
			ChunkSize: cfg.ChunkSize,
			Overlap:   cfg.Overlap,
			Pooling:   "mean",
			Limit:     cfg.Limit,
		},
		Encoder: EncoderSettings{
			TimeoutSeconds: 60,
		},
	}
}

// DefaultPath returns the default config file path,
// ~/.ai4all/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir, configFileName), nil
}

// Load reads settings from path. A missing file yields the defaults; a
// present file is merged over them so partial configs work.
func Load(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing %s: %w", path, err)
	}
	return settings, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// RetrievalConfig converts the retrieval section to its domain form and
// validates it.
func (s Settings) RetrievalConfig() (domain.RetrievalConfig, error) {
	pooling, err := parsePooling(s.Retrieval.Pooling)
	if err != nil {
		return domain.RetrievalConfig{}, err
	}

	cfg := domain.RetrievalConfig{
		Dimension: s.Retrieval.Dimension,
		ChunkSize: s.Retrieval.ChunkSize,
		Overlap:   s.Retrieval.Overlap,
		Pooling:   pooling,
		Limit:     s.Retrieval.Limit,
	}
	if err := cfg.Validate(); err != nil {
		return domain.RetrievalConfig{}, err
	}
	return cfg, nil
}

// EncoderTimeout returns the encoder timeout as a duration.
func (s Settings) EncoderTimeout() time.Duration {
	return time.Duration(s.Encoder.TimeoutSeconds) * time.Second
}

// KnowledgeBasePath resolves the knowledge base file path. Dir defaults
// to ~/.ai4all.
func (s Settings) KnowledgeBasePath() (string, error) {
	dir := s.Data.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, DefaultConfigDir)
	}
	name := s.Data.KnowledgeBase
	if name == "" {
		name = "knowledge.db"
	}
	return filepath.Join(dir, name), nil
}

func parsePooling(name string) (domain.Pooling, error) {
	switch name {
	case "", "mean":
		return domain.PoolingMean, nil
	case "first":
		return domain.PoolingFirst, nil
	case "max":
		return domain.PoolingMax, nil
	default:
		return "", fmt.Errorf("%w: unknown pooling %q", domain.ErrInvalidConfig, name)
	}
}
