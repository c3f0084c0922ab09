package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/credentials"
)

// AuthCommandDeps holds the dependencies for auth commands.
type AuthCommandDeps struct {
	NewStore func() (*credentials.Store, error)
	// ReadSecret reads a token without echo. It fails when stdin is not a
	// terminal, in which case a line is read from In instead.
	ReadSecret func() ([]byte, error)
	In         io.Reader
	Out        io.Writer
	Now        func() time.Time
}

// DefaultAuthDeps returns the default dependencies for production use.
func DefaultAuthDeps() *AuthCommandDeps {
	return &AuthCommandDeps{
		NewStore: credentials.NewStore,
		ReadSecret: func() ([]byte, error) {
			fd := int(os.Stdin.Fd())
			if !term.IsTerminal(fd) {
				return nil, errors.New("stdin is not a terminal")
			}
			return term.ReadPassword(fd)
		},
		In:  os.Stdin,
		Out: os.Stdout,
		Now: time.Now,
	}
}

// NewAuthCommand creates the 'auth' command group.
func NewAuthCommand(deps *AuthCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultAuthDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the AI token used for plans",
		Long: `Manage the token used to call the AI completion endpoint.

The token is stored encrypted in ~/.meetprep/credentials.yaml. The key is
kept in the system keyring, taken from MEETPREP_ENCRYPTION_KEY, or derived
from MEETPREP_PASSPHRASE.

MEETPREP_AI_TOKEN and GITHUB_TOKEN take precedence over the stored token.`,
	}

	cmd.AddCommand(newAuthLoginCommand(deps))
	cmd.AddCommand(newAuthLogoutCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))
	return cmd
}

func newAuthLoginCommand(deps *AuthCommandDeps) *cobra.Command {
	var (
		token          string
		expiresIn      time.Duration
		subject        string
		nonInteractive bool
		rotateKey      bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an AI token",
		Long: `Store an AI token for plan generation and model listing.

Examples:
  # Prompt for the token without echo
  meetprep auth login

  # Pass the token directly
  meetprep auth login --token ghp_abc123... --expires-in 720h

  # Replace the encryption key, discarding the stored token
  meetprep auth login --rotate-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.NewStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}
			out := deps.Out

			if rotateKey {
				if err := store.RotateKey(); err != nil {
					return fmt.Errorf("rotating encryption key: %w", err)
				}
				fmt.Fprintf(out, "Encryption key rotated (%s). Stored token removed.\n", store.KeyDescription())
				if token == "" && nonInteractive {
					return nil
				}
			}

			if token == "" {
				if nonInteractive {
					return errors.New("no token provided and --non-interactive flag set")
				}
				token, err = promptForToken(deps)
				if err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
			}

			creds := &credentials.Credentials{
				Token:    strings.TrimSpace(token),
				Endpoint: config.DefaultAIBaseURL,
				Subject:  subject,
			}
			if expiresIn > 0 {
				creds.ExpiresAt = deps.Now().Add(expiresIn)
			}
			if err := store.Save(creds); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}

			fmt.Fprintln(out, "Login successful!")
			fmt.Fprintf(out, "  Token:   %s\n", credentials.MaskToken(creds.Token))
			fmt.Fprintf(out, "  Expires: %s\n", credentials.FormatExpiry(creds.ExpiresAt))
			if path, err := credentials.CredentialsPath(); err == nil {
				fmt.Fprintf(out, "\nCredentials stored in: %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "AI token (prompted when omitted)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Token lifetime, e.g. 720h (default: no expiry)")
	cmd.Flags().StringVar(&subject, "subject", "", "Account the token belongs to")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting for input")
	cmd.Flags().BoolVar(&rotateKey, "rotate-key", false, "Replace the encryption key before storing")
	return cmd
}

// promptForToken reads the token without echo, falling back to a plain line
// when stdin is not a terminal.
func promptForToken(deps *AuthCommandDeps) (string, error) {
	fmt.Fprint(deps.Out, "AI token: ")
	secret, err := deps.ReadSecret()
	fmt.Fprintln(deps.Out)
	if err == nil {
		if token := strings.TrimSpace(string(secret)); token != "" {
			return token, nil
		}
		return "", errors.New("no token provided")
	}

	line, err := bufio.NewReader(deps.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("no token provided")
	}
	return token, nil
}

func newAuthLogoutCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored AI token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.NewStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}
			out := deps.Out

			if !store.Exists() {
				fmt.Fprintln(out, "No stored credentials found.")
			} else {
				if err := store.Delete(); err != nil {
					return fmt.Errorf("removing credentials: %w", err)
				}
				fmt.Fprintln(out, "Logged out successfully.")
			}

			if env := credentials.EnvCredential(); env != nil {
				fmt.Fprintf(out, "\nNote: %s environment variable is still set.\n", env.Subject)
			}
			return nil
		},
	}
}

func newAuthStatusCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active AI token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := deps.Out
			fmt.Fprintln(out, "Authentication Status")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			env := credentials.EnvCredential()
			if env != nil {
				fmt.Fprintf(out, "Environment: %s = %s (active)\n\n", env.Subject, credentials.MaskToken(env.Token))
			}

			store, err := deps.NewStore()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}
			creds, err := store.Load()
			if errors.Is(err, credentials.ErrNoCredentials) {
				fmt.Fprintln(out, "Stored Credentials: None")
				if env == nil {
					fmt.Fprintln(out, "\nNot authenticated. Run 'meetprep auth login' to store a token.")
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			fmt.Fprintln(out, "Stored Credentials:")
			fmt.Fprintf(out, "  Provider:     %s\n", creds.Provider)
			fmt.Fprintf(out, "  Token:        %s\n", credentials.MaskToken(creds.Token))
			fmt.Fprintf(out, "  Expires:      %s\n", credentials.FormatExpiry(creds.ExpiresAt))
			if creds.Subject != "" {
				fmt.Fprintf(out, "  Subject:      %s\n", creds.Subject)
			}
			fmt.Fprintf(out, "  Key:          %s\n", store.KeyDescription())
			fmt.Fprintf(out, "  Last Updated: %s\n", creds.LastUpdated.Format(time.RFC3339))

			if env != nil {
				fmt.Fprintf(out, "\nActive Credential Source: %s\n", env.Subject)
			} else {
				fmt.Fprintln(out, "\nActive Credential Source: Stored credentials")
			}
			if creds.Expired(deps.Now()) {
				fmt.Fprintln(out, "\nWarning: Stored token has expired. Run 'meetprep auth login'.")
			}
			return nil
		},
	}
}
