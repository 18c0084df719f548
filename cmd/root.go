// ABOUTME: Root command for the securevault CLI
// ABOUTME: Handles global flags, configuration, and wiring of the state machines

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/buggiebug/Secure-Vault/internal/auth"
	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/config"
	"github.com/buggiebug/Secure-Vault/internal/logger"
	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
	"github.com/buggiebug/Secure-Vault/internal/validate"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

var (
	apiURL     string
	configPath string
	jsonOutput bool
	logLevel   string
)

// Exit codes shared by every command
const (
	exitOK     = 0
	exitFailed = 1 // the backend rejected the operation
	exitError  = 2 // usage, configuration, or connectivity error
)

// errNotLoggedIn is reported by commands that need a stored session.
var errNotLoggedIn = errors.New("not logged in; run 'securevault login' first")

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "securevault",
	Short: "Terminal client for the SecureVault password manager",
	Long: `securevault keeps your SecureVault passwords one command away.

Run without a subcommand on a terminal to open the interactive vault.

Environment Variables:
  SECUREVAULT_API_URL     Backend API URL (default: http://localhost:4000)
  SECUREVAULT_CONFIG_DIR  Directory for config.yaml, the session file, and debug.log
  LOG_LEVEL               debug, info, warn, error (default: info)
  LOG_FORMAT              text, json (default: text)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			// Commands report configuration errors themselves with exit code 2.
			return nil
		}
		_, err = logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		return err
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			_ = cmd.Help()
			return
		}
		exitCode := runTUI(cmd.Context())
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

// Execute runs the root command
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides SECUREVAULT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig reads configuration and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session bundles the state machines a command talks to
type session struct {
	cfg     *config.Config
	store   tokenstore.Store
	auth    *auth.Service
	vault   *vault.Service
	notices *notify.Recorder
}

// openSession wires the token store, HTTP client, and state machines
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store := tokenstore.NewFileStore(cfg.TokenFile)
	api := client.New(cfg.APIURL, store,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLegacyTokenHeader(cfg.SendLegacyTokenHeader),
		client.WithLogger(slog.Default()),
	)

	rec := &notify.Recorder{}
	return &session{
		cfg:   cfg,
		store: store,
		auth: auth.New(api, store, auth.Options{
			Notifier:       rec,
			Logger:         slog.Default(),
			ProfileTimeout: cfg.ProfileTimeout,
		}),
		vault:   vault.New(api, vault.Options{Notifier: rec, Logger: slog.Default()}),
		notices: rec,
	}, nil
}

// token returns the stored session token, or errNotLoggedIn
func (s *session) token(ctx context.Context) (string, error) {
	token, err := s.store.GetItem(ctx, tokenstore.TokenKey)
	if err != nil {
		return "", errors.Wrap(err, "read session")
	}
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}

// successes returns the success messages recorded so far
func (s *session) successes() []string {
	var out []string
	for _, n := range s.notices.Notices() {
		if n.Level == notify.Success {
			out = append(out, n.Message)
		}
	}
	return out
}

// report prints the outcome of a mutating command and returns its exit code
func report(w io.Writer, s *session, err error) int {
	if err != nil {
		return fail(w, err)
	}
	msgs := s.successes()
	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(map[string]any{"ok": true, "messages": msgs}))
		return exitOK
	}
	for _, m := range msgs {
		fmt.Fprintln(w, m)
	}
	return exitOK
}

// fail prints err and maps it to an exit code
func fail(w io.Writer, err error) int {
	msg := client.Message(err)
	var ve *validate.Error
	if errors.As(err, &ve) {
		msg = validate.Messages(err)[0]
	}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(map[string]any{"ok": false, "error": msg}))
	} else {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
	return exitCode(err)
}

// exitCode separates rejected operations from errors the user must fix locally
func exitCode(err error) int {
	var te *client.TransportError
	var ve *validate.Error
	var ue *usageErr
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &te), errors.As(err, &ve),
		errors.Is(err, client.ErrTimedOut), errors.Is(err, client.ErrCanceled),
		errors.Is(err, errNotLoggedIn), errors.As(err, &ue),
		errors.Is(err, vault.ErrReservedGroup), errors.Is(err, vault.ErrPINTooShort):
		return exitError
	}
	return exitFailed
}

// formatJSON renders v as indented JSON
func formatJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// usageErr marks missing or malformed command input.
type usageErr struct{ msg string }

func (e *usageErr) Error() string { return e.msg }

func usageError(format string, args ...any) error {
	return &usageErr{msg: fmt.Sprintf(format, args...)}
}

// readSecret returns flagValue when set, otherwise prompts on the terminal
// without echo.
var readSecret = func(flagValue, flag, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", usageError("--%s is required when stdin is not a terminal", flag)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", flag)
	}
	return string(b), nil
}
