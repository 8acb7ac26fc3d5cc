package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
)

// Defaults.
const (
	DefaultModel     = "gpt-3.5-turbo"
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultEmbedding = "text-embedding-3-small"
	DefaultTopK      = 5
	DefaultTimeout   = "60s"
)

// Config is the runtime configuration, read from YAML.
type Config struct {
	DBPath          string          `yaml:"db_path"`
	KBPath          string          `yaml:"kb_path"`
	Stoplist        string          `yaml:"stoplist"`
	TopK            int             `yaml:"top_k"`
	MaxCombinations int             `yaml:"max_combinations"`
	LLM             LLMConfig       `yaml:"llm"`
	Embedding       EmbeddingConfig `yaml:"embedding"`
}

// LLMConfig configures the chat completion endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// EmbeddingConfig configures the embeddings endpoint. An empty BaseURL
// selects lexical retrieval.
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath: "logiclm.db",
		TopK:   DefaultTopK,
		LLM: LLMConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
			Timeout: DefaultTimeout,
		},
		Embedding: EmbeddingConfig{
			Model: DefaultEmbedding,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	return load(path, false)
}

// LoadRequired is Load for a file the user named explicitly: a missing file
// is an ErrInvalidConfig instead of the defaults.
func LoadRequired(path string) (Config, error) {
	return load(path, true)
}

func load(path string, required bool) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg, required); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return fmt.Errorf("%w: config file %s not found", internalerr.ErrInvalidConfig, path)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	// Unmarshal over the defaults so unset keys keep them.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
	if v := os.Getenv("LOGICLM_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LOGICLM_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LOGICLM_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v, ok := os.LookupEnv("LOGICLM_DB"); ok {
		cfg.DBPath = v
	}
	if v := os.Getenv("LOGICLM_KB"); v != "" {
		cfg.KBPath = v
	}
	if v := os.Getenv("LOGICLM_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.TopK < 0 {
		return fmt.Errorf("%w: top_k must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.MaxCombinations < 0 {
		return fmt.Errorf("%w: max_combinations must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be within [0, 2]", internalerr.ErrInvalidConfig)
	}
	if _, err := c.LLMTimeout(); err != nil {
		return err
	}
	return nil
}

// LLMTimeout parses the LLM request timeout.
func (c Config) LLMTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.LLM.Timeout)
	if raw == "" {
		raw = DefaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: llm.timeout %q", internalerr.ErrInvalidConfig, c.LLM.Timeout)
	}
	return d, nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
