package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetprep/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		agentCommand, timeout, outputFormat, debug, noCache = "", 0, "", false, false
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Setenv("MEETPREP_CONFIG_DIR", t.TempDir())

	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"meetings", "transcript", "insights", "ask", "plan", "models", "serve", "parse", "auth", "config", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"agent", "timeout", "output", "debug", "no-cache"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestApplyFlags(t *testing.T) {
	resetFlags(t)
	agentCommand = "/opt/agent"
	timeout = 90 * time.Second
	outputFormat = "yaml"
	debug = true
	noCache = true

	cfg := config.DefaultConfig()
	require.NoError(t, applyFlags(cfg))
	assert.Equal(t, "/opt/agent", cfg.Agent.Command)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, config.OutputFormatYAML, cfg.OutputFormat)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Cache.Enabled)

	outputFormat = "xml"
	assert.Error(t, applyFlags(config.DefaultConfig()))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "meetprep version "))
	assert.Contains(t, out, "commit:")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "cli", info["component"])
}

func TestConfigSetAndShow(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	t.Setenv("MEETPREP_CONFIG_DIR", dir)

	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"config", "set", "timeout", "2m"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "Set timeout = 2m\n", buf.String())

	data, err := os.ReadFile(filepath.Join(dir, config.DefaultConfigFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 2m0s")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)

	buf.Reset()
	root = newRootCommand()
	root.SetOut(&buf)
	root.SetArgs([]string{"config", "show"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Timeout:            2m0s")
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, setConfigValue(cfg, "redis_addr", "localhost:6379"))
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	require.NoError(t, setConfigValue(cfg, "cache_enabled", "false"))
	assert.False(t, cfg.Cache.Enabled)
	require.NoError(t, setConfigValue(cfg, "ai_model", "openai/o3"))
	assert.Equal(t, "openai/o3", cfg.AI.DefaultModel)

	assert.Error(t, setConfigValue(cfg, "timeout", "soon"))
	assert.Error(t, setConfigValue(cfg, "output_format", "xml"))
	assert.Error(t, setConfigValue(cfg, "debug", "maybe"))
	assert.Error(t, setConfigValue(cfg, "tenant_id", "x"))
}

func TestParseDateCommand(t *testing.T) {
	out, err := execute(t, "parse", "date", "2026-02-16T14:00:00", "--output", "json")
	require.NoError(t, err)

	var res struct {
		Input    string `json:"input"`
		Resolved bool   `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Resolved)
	assert.Equal(t, "2026-02-16T14:00:00", res.Input)
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "meetprep")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
