package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/classify"
)

var envVars = []string{
	"MEETPREP_CONFIG_DIR",
	"MEETPREP_AGENT_COMMAND",
	"MEETPREP_AGENT_ARGS",
	"MEETPREP_MEETINGS_TIMEOUT",
	"MEETPREP_TRANSCRIPT_TIMEOUT",
	"MEETPREP_LOCATION_TIMEOUT",
	"MEETPREP_DOWNLOAD_TIMEOUT",
	"MEETPREP_TIMEOUT",
	"MEETPREP_CACHE_ENABLED",
	"MEETPREP_CACHE_TTL",
	"MEETPREP_REDIS_ADDR",
	"MEETPREP_REDIS_DB",
	"MEETPREP_AI_BASE_URL",
	"MEETPREP_AI_MODELS_URL",
	"MEETPREP_AI_MODEL",
	"MEETPREP_SERVER_ADDRESS",
	"MEETPREP_OUTPUT_FORMAT",
	"MEETPREP_DEBUG",
}

// isolateEnv clears every MEETPREP_* variable and points the config dir at
// a fresh temp dir, which it returns.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("MEETPREP_CONFIG_DIR", dir)
	return dir
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

// TestDefaultConfig verifies default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.Agent.Command != "workiq" {
		t.Errorf("Agent.Command = %v, want workiq", cfg.Agent.Command)
	}
	if len(cfg.Agent.Args) != 1 || cfg.Agent.Args[0] != "mcp" {
		t.Errorf("Agent.Args = %v, want [mcp]", cfg.Agent.Args)
	}
	if cfg.Agent.TranscriptTimeout != 10*time.Minute {
		t.Errorf("Agent.TranscriptTimeout = %v, want 10m", cfg.Agent.TranscriptTimeout)
	}
	if cfg.Agent.LocationTimeout != 2*time.Minute {
		t.Errorf("Agent.LocationTimeout = %v, want 2m", cfg.Agent.LocationTimeout)
	}
	if cfg.Agent.DownloadTimeout != 60*time.Second {
		t.Errorf("Agent.DownloadTimeout = %v, want 60s", cfg.Agent.DownloadTimeout)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.OutputFormat != DefaultOutputFormat {
		t.Errorf("OutputFormat = %v, want %v", cfg.OutputFormat, DefaultOutputFormat)
	}
	if cfg.AI.DefaultModel != "gpt-4.1" {
		t.Errorf("AI.DefaultModel = %v, want gpt-4.1", cfg.AI.DefaultModel)
	}
	if !cfg.Cache.Enabled || cfg.Cache.RedisAddr != "" {
		t.Errorf("Cache = %+v, want enabled in-process cache", cfg.Cache)
	}
	if cfg.Classifier.MinLength != classify.DefaultConfig().MinLength {
		t.Errorf("Classifier.MinLength = %v, want default", cfg.Classifier.MinLength)
	}
	if cfg.Debug {
		t.Error("Debug should be false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

// TestOutputFormat_IsValid verifies output format validation.
func TestOutputFormat_IsValid(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{OutputFormatText, true},
		{OutputFormatJSON, true},
		{OutputFormatYAML, true},
		{"invalid", false},
		{"", false},
		{"JSON", false}, // Case sensitive
	}

	for _, tc := range tests {
		if got := tc.format.IsValid(); got != tc.valid {
			t.Errorf("OutputFormat(%q).IsValid() = %v, want %v", tc.format, got, tc.valid)
		}
	}
}

// TestCLIConfig_Validate verifies configuration validation.
func TestCLIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CLIConfig)
		wantErr string
	}{
		{"valid defaults", func(c *CLIConfig) {}, ""},
		{"missing command", func(c *CLIConfig) { c.Agent.Command = " " }, "agent.command is required"},
		{"zero timeout", func(c *CLIConfig) { c.Timeout = 0 }, "timeout must be positive"},
		{"negative transcript timeout", func(c *CLIConfig) { c.Agent.TranscriptTimeout = -time.Second }, "agent.transcript_timeout must be positive"},
		{"negative cache ttl", func(c *CLIConfig) { c.Cache.TTL = -time.Minute }, "cache.ttl"},
		{"inverted thresholds", func(c *CLIConfig) { c.Classifier.MinLength = 500; c.Classifier.RefusalMaxLength = 200 }, "refusal_max_length"},
		{"bad base url", func(c *CLIConfig) { c.AI.BaseURL = "ftp://models.example" }, "ai.base_url"},
		{"base url without host", func(c *CLIConfig) { c.AI.BaseURL = "https://" }, "no host"},
		{"missing server address", func(c *CLIConfig) { c.Server.Address = "" }, "server.address is required"},
		{"bad output format", func(c *CLIConfig) { c.OutputFormat = "xml" }, "invalid output_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestConfigDir verifies config directory path resolution.
func TestConfigDir(t *testing.T) {
	t.Run("with env var", func(t *testing.T) {
		customDir := filepath.Join(t.TempDir(), "custom")
		t.Setenv("MEETPREP_CONFIG_DIR", customDir)

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}
		if dir != customDir {
			t.Errorf("ConfigDir() = %v, want %v", dir, customDir)
		}
	})

	t.Run("default without env var", func(t *testing.T) {
		t.Setenv("MEETPREP_CONFIG_DIR", "")

		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}
		home, _ := os.UserHomeDir()
		if expected := filepath.Join(home, DefaultConfigDir); dir != expected {
			t.Errorf("ConfigDir() = %v, want %v", dir, expected)
		}
	})
}

// TestLoadConfig_Defaults verifies default values when no config exists.
func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Agent.Command != DefaultAgentCommand {
		t.Errorf("Agent.Command = %v, want %v", cfg.Agent.Command, DefaultAgentCommand)
	}
	if cfg.Server.Address != DefaultServerAddress {
		t.Errorf("Server.Address = %v, want %v", cfg.Server.Address, DefaultServerAddress)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

// TestLoadConfig_FromFile verifies loading configuration from a YAML file.
func TestLoadConfig_FromFile(t *testing.T) {
	dir := isolateEnv(t)
	writeConfigFile(t, dir, `
agent:
  command: /opt/workiq/bin/workiq
  args: [mcp, --quiet]
  transcript_timeout: 15m
classifier:
  min_length: 80
  refusal_phrases:
    - "not permitted"
cache:
  ttl: 1h
  redis_addr: localhost:6379
ai:
  default_model: gpt-4o
timeout: 90s
output_format: json
debug: true
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Agent.Command != "/opt/workiq/bin/workiq" {
		t.Errorf("Agent.Command = %v", cfg.Agent.Command)
	}
	if strings.Join(cfg.Agent.Args, " ") != "mcp --quiet" {
		t.Errorf("Agent.Args = %v", cfg.Agent.Args)
	}
	if cfg.Agent.TranscriptTimeout != 15*time.Minute {
		t.Errorf("Agent.TranscriptTimeout = %v, want 15m", cfg.Agent.TranscriptTimeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Agent.LocationTimeout != DefaultLocationTimeout {
		t.Errorf("Agent.LocationTimeout = %v, want default", cfg.Agent.LocationTimeout)
	}
	if cfg.Classifier.MinLength != 80 {
		t.Errorf("Classifier.MinLength = %v, want 80", cfg.Classifier.MinLength)
	}
	if cfg.Classifier.RefusalMaxLength != 1000 {
		t.Errorf("Classifier.RefusalMaxLength = %v, want 1000", cfg.Classifier.RefusalMaxLength)
	}
	if len(cfg.Classifier.RefusalPhrases) != 1 || cfg.Classifier.RefusalPhrases[0] != "not permitted" {
		t.Errorf("Classifier.RefusalPhrases = %v", cfg.Classifier.RefusalPhrases)
	}
	if cfg.Cache.TTL != time.Hour || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should keep its default")
	}
	if cfg.AI.DefaultModel != "gpt-4o" || cfg.AI.BaseURL != DefaultAIBaseURL {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

// TestLoadConfig_InvalidTimeout verifies that a malformed duration is reported.
func TestLoadConfig_InvalidTimeout(t *testing.T) {
	dir := isolateEnv(t)
	writeConfigFile(t, dir, "timeout: soon\n")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail on an invalid duration")
	}
}

// TestLoadConfig_InvalidYAML verifies that a broken file is reported.
func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := isolateEnv(t)
	writeConfigFile(t, dir, "agent: [unclosed\n")

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("LoadConfig() error = %v, want parse error", err)
	}
}

// TestLoadConfig_WithEnvOverrides verifies environment variable overrides.
func TestLoadConfig_WithEnvOverrides(t *testing.T) {
	dir := isolateEnv(t)
	writeConfigFile(t, dir, "timeout: 90s\noutput_format: yaml\n")

	t.Setenv("MEETPREP_AGENT_COMMAND", "workiq-dev")
	t.Setenv("MEETPREP_AGENT_ARGS", "mcp  --verbose")
	t.Setenv("MEETPREP_TRANSCRIPT_TIMEOUT", "20m")
	t.Setenv("MEETPREP_TIMEOUT", "45s")
	t.Setenv("MEETPREP_CACHE_ENABLED", "false")
	t.Setenv("MEETPREP_REDIS_ADDR", "redis:6379")
	t.Setenv("MEETPREP_REDIS_DB", "2")
	t.Setenv("MEETPREP_AI_MODEL", "o3-mini")
	t.Setenv("MEETPREP_SERVER_ADDRESS", "0.0.0.0:8080")
	t.Setenv("MEETPREP_OUTPUT_FORMAT", "json")
	t.Setenv("MEETPREP_DEBUG", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Agent.Command != "workiq-dev" {
		t.Errorf("Agent.Command = %v, want workiq-dev", cfg.Agent.Command)
	}
	if strings.Join(cfg.Agent.Args, ",") != "mcp,--verbose" {
		t.Errorf("Agent.Args = %v", cfg.Agent.Args)
	}
	if cfg.Agent.TranscriptTimeout != 20*time.Minute {
		t.Errorf("Agent.TranscriptTimeout = %v, want 20m", cfg.Agent.TranscriptTimeout)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s (env beats file)", cfg.Timeout)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Cache.RedisAddr != "redis:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.AI.DefaultModel != "o3-mini" {
		t.Errorf("AI.DefaultModel = %v, want o3-mini", cfg.AI.DefaultModel)
	}
	if cfg.Server.Address != "0.0.0.0:8080" {
		t.Errorf("Server.Address = %v", cfg.Server.Address)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

// TestLoadFromEnv_InvalidValues verifies that unparseable values are ignored.
func TestLoadFromEnv_InvalidValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MEETPREP_TIMEOUT", "not-a-duration")
	t.Setenv("MEETPREP_REDIS_DB", "two")
	t.Setenv("MEETPREP_CACHE_ENABLED", "maybe")

	cfg := DefaultConfig()
	loadFromEnv(cfg)

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
	if cfg.Cache.RedisDB != 0 {
		t.Errorf("Cache.RedisDB = %v, want 0", cfg.Cache.RedisDB)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should keep its default")
	}
}

// TestLoadConfig_ExpandsCommand verifies ~ expansion of the agent command.
func TestLoadConfig_ExpandsCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MEETPREP_AGENT_COMMAND", "~/bin/workiq")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "bin", "workiq"); cfg.Agent.Command != want {
		t.Errorf("Agent.Command = %v, want %v", cfg.Agent.Command, want)
	}
}

// TestSaveConfig verifies that a saved config loads back unchanged.
func TestSaveConfig(t *testing.T) {
	dir := isolateEnv(t)

	cfg := DefaultConfig()
	cfg.Agent.Args = []string{"mcp", "--tenant", "contoso"}
	cfg.Agent.MeetingsTimeout = 7 * time.Minute
	cfg.Cache.RedisAddr = "cache:6379"
	cfg.OutputFormat = OutputFormatYAML
	cfg.Debug = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DefaultConfigFile))
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if !strings.Contains(string(data), "meetings_timeout: 7m0s") {
		t.Errorf("durations should be saved as strings:\n%s", data)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if strings.Join(loaded.Agent.Args, " ") != "mcp --tenant contoso" {
		t.Errorf("Agent.Args = %v", loaded.Agent.Args)
	}
	if loaded.Agent.MeetingsTimeout != 7*time.Minute {
		t.Errorf("Agent.MeetingsTimeout = %v, want 7m", loaded.Agent.MeetingsTimeout)
	}
	if loaded.Cache.RedisAddr != "cache:6379" {
		t.Errorf("Cache.RedisAddr = %v", loaded.Cache.RedisAddr)
	}
	if loaded.OutputFormat != OutputFormatYAML || !loaded.Debug {
		t.Errorf("loaded = %+v", loaded)
	}
}

// TestSaveConfig_CreatesDirectory verifies that SaveConfig creates a missing directory.
func TestSaveConfig_CreatesDirectory(t *testing.T) {
	isolateEnv(t)
	nested := filepath.Join(t.TempDir(), "a", "b")
	t.Setenv("MEETPREP_CONFIG_DIR", nested)

	if err := SaveConfig(DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(nested, DefaultConfigFile))
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 600", perm)
	}
}

// TestEnsureConfigDir verifies config directory creation.
func TestEnsureConfigDir(t *testing.T) {
	isolateEnv(t)
	dir := filepath.Join(t.TempDir(), "fresh")
	t.Setenv("MEETPREP_CONFIG_DIR", dir)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("config dir not created: %v", err)
	}
}

// TestExpandPath verifies home directory expansion.
func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/bin/workiq", filepath.Join(home, "bin", "workiq")},
		{"/usr/local/bin/workiq", "/usr/local/bin/workiq"},
		{"~other/bin", "~other/bin"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Errorf("ExpandPath(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
