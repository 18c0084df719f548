// ABOUTME: Status command for the securevault CLI
// ABOUTME: Shows the stored session, what its token claims, and whether the backend accepts it

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
)

var statusOffline bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Display the backend URL, the stored session token, and whether the backend still accepts it.

Exit codes:
  0 - Logged in with a session the backend accepts
  1 - Not logged in, or the session was rejected
  2 - Error (connectivity, configuration)`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runStatus(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusOffline, "offline", false, "Only inspect the local token; do not contact the backend")
}

// statusReport is what status prints
type statusReport struct {
	Backend   string     `json:"backend"`
	TokenFile string     `json:"token_file"`
	LoggedIn  bool       `json:"logged_in"`
	Session   string     `json:"session"`
	User      string     `json:"user,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Session states reported by status
const (
	sessionNone       = "none"
	sessionUnverified = "unverified"
	sessionValid      = "valid"
	sessionRejected   = "rejected"
	sessionUnknown    = "unknown"
)

// runStatus inspects the session and returns exit code
func runStatus(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}

	r := statusReport{Backend: s.cfg.APIURL, TokenFile: s.cfg.TokenFile, Session: sessionNone}
	code := exitFailed

	token, err := s.token(ctx)
	switch {
	case err == errNotLoggedIn:
	case err != nil:
		return fail(w, err)
	default:
		r.LoggedIn = true
		applyTokenInfo(&r, tokenstore.Inspect(token))
		r.Session, code = sessionUnverified, exitOK

		if !statusOffline {
			user, err := s.auth.GetUser(ctx)
			switch {
			case err == nil:
				r.Session, r.User = sessionValid, user.Name()
			case client.IsUnauthorized(err):
				// GetUser has already removed the rejected token.
				r.LoggedIn = false
				r.Session, r.Error, code = sessionRejected, client.Message(err), exitFailed
			default:
				r.Session, r.Error, code = sessionUnknown, client.Message(err), exitCode(err)
			}
		}
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(r))
	} else {
		fmt.Fprintln(w, formatStatusHuman(r))
	}
	return code
}

func applyTokenInfo(r *statusReport, info tokenstore.TokenInfo) {
	if info.Opaque {
		return
	}
	r.Subject = info.Subject
	if !info.IssuedAt.IsZero() {
		t := info.IssuedAt
		r.IssuedAt = &t
	}
	if !info.ExpiresAt.IsZero() {
		t := info.ExpiresAt
		r.ExpiresAt = &t
	}
}

// formatStatusHuman formats the status report for human readability
func formatStatusHuman(r statusReport) string {
	if !r.LoggedIn && r.Session == sessionNone {
		return fmt.Sprintf("Backend:    %s\nNot logged in. Run 'securevault login' first.", r.Backend)
	}

	out := fmt.Sprintf("Backend:    %s\nToken file: %s\nSession:    %s", r.Backend, r.TokenFile, r.Session)
	if r.User != "" {
		out += fmt.Sprintf("\nUser:       %s", r.User)
	}
	if r.Subject != "" {
		out += fmt.Sprintf("\nSubject:    %s", r.Subject)
	}
	if r.IssuedAt != nil {
		out += fmt.Sprintf("\nIssued:     %s", r.IssuedAt.Local().Format(time.RFC1123))
	}
	if r.ExpiresAt != nil {
		out += fmt.Sprintf("\nExpires:    %s [%s]", r.ExpiresAt.Local().Format(time.RFC1123), expiryStatus(*r.ExpiresAt, time.Now()))
	}
	if r.Error != "" {
		out += fmt.Sprintf("\nError:      %s", r.Error)
	}
	return out
}

// expiryStatus returns ok/expiring/expired for a token expiry
func expiryStatus(exp, now time.Time) string {
	switch {
	case !now.Before(exp):
		return "expired"
	case exp.Sub(now) < 24*time.Hour:
		return "expiring"
	}
	return "ok"
}
