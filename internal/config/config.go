package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Models      Models      `yaml:"models"`
	Recommend   Recommend   `yaml:"recommend"`
	Planner     Planner     `yaml:"planner"`
	Explanation Explanation `yaml:"explanation"`
	Output      Output      `yaml:"output"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
}

// Models locates the read-only artifacts produced by the offline training job
// and the external embedding service used for free-text queries.
type Models struct {
	ModelDir       string `yaml:"model_dir"`
	ContentIndex   string `yaml:"content_index"`
	AffinityModel  string `yaml:"affinity_model"`
	EmbeddingModel string `yaml:"embedding_model"`
	OllamaURL      string `yaml:"ollama_url"`
	CFCandidates   int    `yaml:"cf_candidates"`
}

type Recommend struct {
	Alpha            float64 `yaml:"alpha"`
	TopK             int     `yaml:"top_k"`
	RequireKnownUser bool    `yaml:"require_known_user"`
	DefaultQuery     string  `yaml:"default_query"`
	QueryCacheSize   int     `yaml:"query_cache_size"`
	ExplainReasons   bool    `yaml:"explain_reasons"`
}

type Planner struct {
	WeaknessThreshold     float64 `yaml:"weakness_threshold"`
	StrengthThreshold     float64 `yaml:"strength_threshold"`
	SimpleWeakThreshold   float64 `yaml:"simple_weak_threshold"`
	SimpleStrongThreshold float64 `yaml:"simple_strong_threshold"`
	TargetScore           float64 `yaml:"target_score"`
	MaxRecommendations    int     `yaml:"max_recommendations"`
	ScheduleTopics        int     `yaml:"schedule_topics"`
	MinutesPerSession     int     `yaml:"minutes_per_session"`
}

type Explanation struct {
	Enabled         bool          `yaml:"enabled"`
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	OllamaURL       string        `yaml:"ollama_url"`
	OpenAIModel     string        `yaml:"openai_model"`
	AnthropicModel  string        `yaml:"anthropic_model"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	AnthropicKeyEnv string        `yaml:"anthropic_key_env"`
	MaxTokens       int           `yaml:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port      int `yaml:"port"`
	RateLimit int `yaml:"rate_limit"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for vocalearn.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "vocalearn")
}

// DataDir returns the XDG data directory for vocalearn.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "vocalearn")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/vocalearn/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'vocalearn init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file overrides anything.
func Default() *Config {
	return &Config{
		Models: Models{
			ModelDir:       "./models",
			ContentIndex:   "content_index.json",
			AffinityModel:  "affinity_model.json",
			EmbeddingModel: "nomic-embed-text",
			OllamaURL:      "http://localhost:11434",
			CFCandidates:   500,
		},
		Recommend: Recommend{
			Alpha:          0.6,
			TopK:           10,
			DefaultQuery:   "vocational training general",
			QueryCacheSize: 256,
		},
		Planner: Planner{
			WeaknessThreshold:     60,
			StrengthThreshold:     85,
			SimpleWeakThreshold:   60,
			SimpleStrongThreshold: 80,
			TargetScore:           75,
			MaxRecommendations:    5,
			ScheduleTopics:        3,
			MinutesPerSession:     45,
		},
		Explanation: Explanation{
			Enabled:         false,
			Provider:        "ollama",
			Model:           "qwen2.5:7b",
			OllamaURL:       "http://localhost:11434",
			OpenAIModel:     "gpt-4.1-mini",
			AnthropicModel:  "claude-sonnet-4-5-20250929",
			APIKeyEnv:       "OPENAI_API_KEY",
			AnthropicKeyEnv: "ANTHROPIC_API_KEY",
			MaxTokens:       300,
			Timeout:         20 * time.Second,
			BreakerFailures: 3,
			BreakerCooldown: time.Minute,
		},
		Server:  Server{Port: 8000, RateLimit: 120},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the scoring code cannot honour.
func (c *Config) Validate() error {
	if c.Recommend.Alpha < 0 || c.Recommend.Alpha > 1 {
		return fmt.Errorf("recommend.alpha must be within [0,1], got %v", c.Recommend.Alpha)
	}
	if c.Recommend.TopK < 1 {
		return fmt.Errorf("recommend.top_k must be >= 1, got %d", c.Recommend.TopK)
	}
	p := c.Planner
	if p.WeaknessThreshold > p.StrengthThreshold {
		return fmt.Errorf("planner.weakness_threshold (%v) exceeds strength_threshold (%v)", p.WeaknessThreshold, p.StrengthThreshold)
	}
	if p.SimpleWeakThreshold > p.SimpleStrongThreshold {
		return fmt.Errorf("planner.simple_weak_threshold (%v) exceeds simple_strong_threshold (%v)", p.SimpleWeakThreshold, p.SimpleStrongThreshold)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// ContentIndexPath returns the full path of the content index artifact.
func (c *Config) ContentIndexPath() string {
	return artifactPath(c.Models.ModelDir, c.Models.ContentIndex)
}

// AffinityModelPath returns the full path of the affinity model artifact.
func (c *Config) AffinityModelPath() string {
	return artifactPath(c.Models.ModelDir, c.Models.AffinityModel)
}

func artifactPath(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
