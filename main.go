// Package main provides the meetprep CLI entry point.
// meetprep lists meetings, fetches transcripts through a meeting agent and
// drafts architecture proposals from them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetprep/cmd"
	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/pkg/buildinfo"
	"github.com/otherjamesbrown/meetprep/pkg/render"
)

// Global flags.
var (
	agentCommand string
	timeout      time.Duration
	outputFormat string
	debug        bool
	noCache      bool
)

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.CLIConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.CLIConfig) error {
	if agentCommand != "" {
		cfg.Agent.Command = agentCommand
	}
	if timeout != 0 {
		cfg.Timeout = timeout
	}
	if outputFormat != "" {
		format := config.OutputFormat(outputFormat)
		if !format.IsValid() {
			return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", outputFormat)
		}
		cfg.OutputFormat = format
	}
	if debug {
		cfg.Debug = true
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	return nil
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "meetprep",
		Short: "Meeting transcripts and architecture proposals from your meeting agent",
		Long: `meetprep asks a meeting agent over the Model Context Protocol for your
recent meetings and their transcripts, turns the free-text answers into
structured records, and drafts architecture proposals from a transcript.

COMMON WORKFLOWS:
  List meetings:     meetprep meetings
  Get a transcript:  meetprep transcript "Weekly Sync" --date "today at 10:00 AM"
  Draft a proposal:  meetprep plan "Customer Kickoff"
  Parse saved text:  meetprep parse meetings answer.md
  Run the API:       meetprep serve

Commands support --output json and --output yaml for structured data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&agentCommand, "agent", "", "agent executable (default: workiq)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "default agent question timeout (e.g., 2m)")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the agent answer cache")

	assistantDeps := cmd.DefaultAssistantDeps()
	assistantDeps.LoadConfig = loadConfig
	root.AddCommand(cmd.NewAssistantCommands(assistantDeps)...)

	parseDeps := cmd.DefaultParseDeps()
	parseDeps.LoadConfig = loadConfig
	root.AddCommand(cmd.NewParseCommand(parseDeps))

	serveDeps := cmd.DefaultServeDeps()
	serveDeps.LoadConfig = loadConfig
	root.AddCommand(cmd.NewServeCommand(serveDeps))

	root.AddCommand(cmd.NewAuthCommand(nil))
	root.AddCommand(newConfigCommand())
	root.AddCommand(newVersionCommand())
	root.AddCommand(newCompletionCommand(root))
	return root
}

func newVersionCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build time of meetprep.

Examples:
  meetprep version
  meetprep version --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Get("cli")
			out := cmd.OutOrStdout()
			if asJSON || outputFormat == string(config.OutputFormatJSON) {
				return render.Encode(out, config.OutputFormatJSON, info)
			}
			fmt.Fprintf(out, "meetprep version %s\n", info.Version)
			fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
			fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  `View and modify the meetprep configuration settings.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if cfg.OutputFormat != config.OutputFormatText {
				return render.Encode(cmd.OutOrStdout(), cfg.OutputFormat, cfg)
			}
			showConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  `Create a new configuration file with default values if one doesn't exist.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configPath, err := config.ConfigPath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}
			if _, err := os.Stat(configPath); err == nil {
				fmt.Fprintf(out, "Configuration file already exists: %s\n", configPath)
				fmt.Fprintln(out, "Use 'meetprep config show' to view current settings.")
				return nil
			}

			if err := config.SaveConfig(config.DefaultConfig()); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}
			fmt.Fprintf(out, "Created configuration file: %s\n", configPath)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Available keys:
  agent_command   - Agent executable (looked up on PATH)
  timeout         - Default question timeout (e.g., 5m)
  output_format   - Default output format (text, json, yaml)
  cache_enabled   - Cache agent answers (true/false)
  cache_ttl       - How long answers are reused (e.g., 30m)
  redis_addr      - Shared Redis cache (host:port, empty for in-process)
  ai_model        - Default model for plans
  server_address  - Listen address for 'meetprep serve'
  debug           - Enable debug mode (true/false)

Examples:
  meetprep config set timeout 2m
  meetprep config set redis_addr localhost:6379`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				cfg = config.DefaultConfig()
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	})

	return configCmd
}

func showConfig(out io.Writer, cfg *config.CLIConfig) {
	configPath, _ := config.ConfigPath()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Config file:        %s\n", configPath)
	fmt.Fprintf(out, "  Agent command:      %s %v\n", cfg.Agent.Command, cfg.Agent.Args)
	fmt.Fprintf(out, "  Timeout:            %s\n", cfg.Timeout)
	fmt.Fprintf(out, "  Meetings timeout:   %s\n", cfg.Agent.MeetingsTimeout)
	fmt.Fprintf(out, "  Transcript timeout: %s\n", cfg.Agent.TranscriptTimeout)
	fmt.Fprintf(out, "  Cache:              %t (ttl %s, redis %s)\n", cfg.Cache.Enabled, cfg.Cache.TTL, valueOrDefault(cfg.Cache.RedisAddr, "(in-process)"))
	fmt.Fprintf(out, "  AI model:           %s\n", cfg.AI.DefaultModel)
	fmt.Fprintf(out, "  Server address:     %s\n", cfg.Server.Address)
	fmt.Fprintf(out, "  Output format:      %s\n", cfg.OutputFormat)
	fmt.Fprintf(out, "  Debug:              %t\n", cfg.Debug)
}

func setConfigValue(cfg *config.CLIConfig, key, value string) error {
	switch key {
	case "agent_command":
		cfg.Agent.Command = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		cfg.Timeout = d
	case "output_format":
		format := config.OutputFormat(value)
		if !format.IsValid() {
			return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", value)
		}
		cfg.OutputFormat = format
	case "cache_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid cache_enabled value: %s (must be true or false)", value)
		}
		cfg.Cache.Enabled = enabled
	case "cache_ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl value: %w", err)
		}
		cfg.Cache.TTL = d
	case "redis_addr":
		cfg.Cache.RedisAddr = value
	case "ai_model":
		cfg.AI.DefaultModel = value
	case "server_address":
		cfg.Server.Address = value
	case "debug":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
		}
		cfg.Debug = enabled
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func newCompletionCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for meetprep.

Bash:
  $ source <(meetprep completion bash)

Zsh:
  $ meetprep completion zsh > "${fpath[1]}/_meetprep"

Fish:
  $ meetprep completion fish | source

PowerShell:
  PS> meetprep completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

func main() {
	// Interrupts cancel running agent questions and stop the server.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
