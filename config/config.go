// Package config provides configuration management for the meetprep command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/classify"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultAgentCommand      = "workiq"
	DefaultTimeout           = 5 * time.Minute
	DefaultMeetingsTimeout   = 5 * time.Minute
	DefaultTranscriptTimeout = 10 * time.Minute
	DefaultLocationTimeout   = 2 * time.Minute
	DefaultDownloadTimeout   = 60 * time.Second
	DefaultCacheTTL          = 30 * time.Minute
	DefaultCacheKeyPrefix    = "meetprep:answer:"
	DefaultAIBaseURL         = "https://models.github.ai/inference"
	DefaultAIModelsURL       = "https://models.github.ai/catalog/models"
	DefaultAIModel           = "gpt-4.1"
	DefaultServerAddress     = "127.0.0.1:3000"
	DefaultOutputFormat      = OutputFormatText
	DefaultConfigDir         = ".meetprep"
	DefaultConfigFile        = "config.yaml"
)

// AgentConfig holds the settings for the MCP agent subprocess.
type AgentConfig struct {
	// Command is the agent executable, looked up on PATH.
	Command string `yaml:"command"`

	// Args are passed to Command to start its MCP server.
	Args []string `yaml:"args"`

	// Env holds extra KEY=VALUE pairs for the subprocess.
	Env []string `yaml:"env,omitempty"`

	// MeetingsTimeout bounds the meeting-list question.
	MeetingsTimeout time.Duration `yaml:"meetings_timeout"`

	// TranscriptTimeout bounds each transcript question.
	TranscriptTimeout time.Duration `yaml:"transcript_timeout"`

	// LocationTimeout bounds the transcript-location question.
	LocationTimeout time.Duration `yaml:"location_timeout"`

	// DownloadTimeout bounds the transcript file download.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// CacheConfig holds the agent answer cache settings.
type CacheConfig struct {
	// Enabled turns answer caching on.
	Enabled bool `yaml:"enabled"`

	// TTL is how long an answer is reused.
	TTL time.Duration `yaml:"ttl"`

	// RedisAddr selects a shared Redis cache (host:port). Empty keeps the
	// cache in process.
	RedisAddr string `yaml:"redis_addr,omitempty"`

	// RedisDB is the Redis database number.
	RedisDB int `yaml:"redis_db,omitempty"`

	// KeyPrefix namespaces the Redis keys.
	KeyPrefix string `yaml:"key_prefix"`
}

// AIConfig holds the AI completion endpoint settings. The token itself
// lives in the credential store.
type AIConfig struct {
	// BaseURL is the OpenAI-compatible inference root; chat completions are
	// posted to BaseURL + "/chat/completions".
	BaseURL string `yaml:"base_url"`

	// ModelsURL lists the model catalog.
	ModelsURL string `yaml:"models_url"`

	// DefaultModel is used when a request names no model.
	DefaultModel string `yaml:"default_model"`
}

// ServerConfig holds the local HTTP API settings.
type ServerConfig struct {
	// Address is the listen address (host:port).
	Address string `yaml:"address"`

	// LogJSON switches request logs to JSON.
	LogJSON bool `yaml:"log_json,omitempty"`
}

// CLIConfig holds the meetprep configuration settings.
type CLIConfig struct {
	// Agent configures the MCP agent subprocess.
	Agent AgentConfig `yaml:"agent"`

	// Classifier tunes refusal detection and content extraction.
	Classifier classify.Config `yaml:"classifier"`

	// Cache configures the agent answer cache.
	Cache CacheConfig `yaml:"cache"`

	// AI configures the completion endpoint used for plans.
	AI AIConfig `yaml:"ai"`

	// Server configures `meetprep serve`.
	Server ServerConfig `yaml:"server"`

	// Timeout is the default timeout for agent questions without a
	// dedicated timeout (insights, ask).
	Timeout time.Duration `yaml:"timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Agent: AgentConfig{
			Command:           DefaultAgentCommand,
			Args:              []string{"mcp"},
			MeetingsTimeout:   DefaultMeetingsTimeout,
			TranscriptTimeout: DefaultTranscriptTimeout,
			LocationTimeout:   DefaultLocationTimeout,
			DownloadTimeout:   DefaultDownloadTimeout,
		},
		Classifier: classify.DefaultConfig(),
		Cache: CacheConfig{
			Enabled:   true,
			TTL:       DefaultCacheTTL,
			KeyPrefix: DefaultCacheKeyPrefix,
		},
		AI: AIConfig{
			BaseURL:      DefaultAIBaseURL,
			ModelsURL:    DefaultAIModelsURL,
			DefaultModel: DefaultAIModel,
		},
		Server: ServerConfig{
			Address: DefaultServerAddress,
		},
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MEETPREP_CONFIG_DIR if set, otherwise ~/.meetprep
func ConfigDir() (string, error) {
	if dir := os.Getenv("MEETPREP_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.meetprep/config.yaml or $MEETPREP_CONFIG_DIR/config.yaml)
// 3. Environment variables (MEETPREP_*)
// Command-line flags are applied by the caller on the returned value.
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if cmd, err := ExpandPath(cfg.Agent.Command); err == nil {
		cfg.Agent.Command = cmd
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes the YAML file over cfg; keys absent from the file
// keep their current values. Durations are written as "90s", "10m".
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
// Unparseable values are ignored.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("MEETPREP_AGENT_COMMAND"); v != "" {
		cfg.Agent.Command = v
	}
	if v := os.Getenv("MEETPREP_AGENT_ARGS"); v != "" {
		cfg.Agent.Args = strings.Fields(v)
	}
	envDuration("MEETPREP_MEETINGS_TIMEOUT", &cfg.Agent.MeetingsTimeout)
	envDuration("MEETPREP_TRANSCRIPT_TIMEOUT", &cfg.Agent.TranscriptTimeout)
	envDuration("MEETPREP_LOCATION_TIMEOUT", &cfg.Agent.LocationTimeout)
	envDuration("MEETPREP_DOWNLOAD_TIMEOUT", &cfg.Agent.DownloadTimeout)
	envDuration("MEETPREP_TIMEOUT", &cfg.Timeout)

	if v := os.Getenv("MEETPREP_CACHE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = enabled
		}
	}
	envDuration("MEETPREP_CACHE_TTL", &cfg.Cache.TTL)
	if v := os.Getenv("MEETPREP_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("MEETPREP_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RedisDB = db
		}
	}

	if v := os.Getenv("MEETPREP_AI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("MEETPREP_AI_MODELS_URL"); v != "" {
		cfg.AI.ModelsURL = v
	}
	if v := os.Getenv("MEETPREP_AI_MODEL"); v != "" {
		cfg.AI.DefaultModel = v
	}

	if v := os.Getenv("MEETPREP_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}

	if v := os.Getenv("MEETPREP_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("MEETPREP_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
}

func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if strings.TrimSpace(c.Agent.Command) == "" {
		return fmt.Errorf("agent.command is required")
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"timeout", c.Timeout},
		{"agent.meetings_timeout", c.Agent.MeetingsTimeout},
		{"agent.transcript_timeout", c.Agent.TranscriptTimeout},
		{"agent.location_timeout", c.Agent.LocationTimeout},
		{"agent.download_timeout", c.Agent.DownloadTimeout},
	}
	for _, tt := range timeouts {
		if tt.d <= 0 {
			return fmt.Errorf("%s must be positive", tt.name)
		}
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if c.Classifier.MinLength < 0 || c.Classifier.RefusalMaxLength < 0 {
		return fmt.Errorf("classifier thresholds must not be negative")
	}
	if c.Classifier.RefusalMaxLength > 0 && c.Classifier.RefusalMaxLength < c.Classifier.MinLength {
		return fmt.Errorf("classifier.refusal_max_length must be at least classifier.min_length")
	}

	for name, raw := range map[string]string{"ai.base_url": c.AI.BaseURL, "ai.models_url": c.AI.ModelsURL} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
