// ABOUTME: Interactive vault command for the securevault CLI
// ABOUTME: Wires the state machines to the Bubble Tea app and logs to a file

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/buggiebug/Secure-Vault/internal/auth"
	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/logger"
	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
	"github.com/buggiebug/Secure-Vault/internal/tui"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// noticeBuffer bounds how many notifications queue up while the UI is busy.
const noticeBuffer = 16

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive vault",
	Long: `Open the full-screen vault. This is also what securevault does when run
without a subcommand on a terminal.

Logs go to debug.log in the config directory while the vault is open.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runTUI(cmd.Context())
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runTUI runs the interactive vault and returns exit code
func runTUI(ctx context.Context) int {
	cfg, err := loadConfig()
	if err != nil {
		return fail(os.Stderr, err)
	}

	closeLog, err := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Dir: cfg.ConfigDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		slog.SetDefault(logger.Discard())
	}
	defer closeLog()

	store := tokenstore.NewFileStore(cfg.TokenFile)
	api := client.New(cfg.APIURL, store,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLegacyTokenHeader(cfg.SendLegacyTokenHeader),
		client.WithLogger(slog.Default()),
	)

	notices := notify.NewChannel(noticeBuffer)
	authM := auth.New(api, store, auth.Options{
		Notifier:       notices,
		Logger:         slog.Default(),
		ProfileTimeout: cfg.ProfileTimeout,
	})
	vaultM := vault.New(api, vault.Options{Notifier: notices, Logger: slog.Default()})

	slog.Info("starting interactive vault", "api_url", cfg.APIURL)
	if err := tui.Run(ctx, authM, vaultM, notices); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}
