// ABOUTME: Account commands for the securevault CLI
// ABOUTME: signup, login, logout, forgot-password, and whoami

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/validate"
)

var (
	authName   string
	authEmail  string
	authMobile string
	authPIN    string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account with a name, an email address or mobile number, and a 6-digit PIN.

The PIN is prompted for when --pin is not given.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runSignup(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Long: `Log in with an email address or mobile number and your PIN.

Exit codes:
  0 - Logged in
  1 - Credentials rejected
  2 - Error (connectivity, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runLogin(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runLogout(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var forgotCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Email a PIN reset link",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runForgotPassword(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the profile of the logged-in user",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runWhoami(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, forgotCmd, whoamiCmd)

	signupCmd.Flags().StringVar(&authName, "name", "", "Display name")
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Email address")
		c.Flags().StringVar(&authMobile, "mobile", "", "10-digit mobile number")
		c.Flags().StringVar(&authPIN, "pin", "", "6-digit PIN (prompted when omitted)")
		c.MarkFlagsMutuallyExclusive("email", "mobile")
		c.MarkFlagsOneRequired("email", "mobile")
	}
	forgotCmd.Flags().StringVar(&authEmail, "email", "", "Email address of the account")
	_ = forgotCmd.MarkFlagRequired("email")
}

// runSignup creates an account and returns exit code
func runSignup(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}

	pin, err := readSecret(authPIN, "pin", "Choose a 6-digit PIN: ")
	if err != nil {
		return fail(w, err)
	}

	req := client.SignupRequest{
		Name:     strings.TrimSpace(authName),
		Email:    strings.TrimSpace(authEmail),
		Mobile:   strings.TrimSpace(authMobile),
		Password: pin,
	}
	if err := validate.Struct(validate.Signup{
		Name:        req.Name,
		Credentials: validate.Credentials{Email: req.Email, Mobile: req.Mobile, Password: req.Password},
	}); err != nil {
		return fail(w, err)
	}

	return report(w, s, s.auth.Signup(ctx, req))
}

// runLogin authenticates and returns exit code
func runLogin(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}

	pin, err := readSecret(authPIN, "pin", "PIN: ")
	if err != nil {
		return fail(w, err)
	}

	req := client.LoginRequest{
		Email:    strings.TrimSpace(authEmail),
		Mobile:   strings.TrimSpace(authMobile),
		Password: pin,
	}
	if err := validate.Struct(validate.Credentials{Email: req.Email, Mobile: req.Mobile, Password: req.Password}); err != nil {
		return fail(w, err)
	}

	return report(w, s, s.auth.Login(ctx, req))
}

// runLogout removes the stored token and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if err := s.auth.Logout(ctx); err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(map[string]any{"ok": true, "messages": []string{"Logged out"}}))
	} else {
		fmt.Fprintln(w, "Logged out")
	}
	return exitOK
}

// runForgotPassword requests a reset email and returns exit code
func runForgotPassword(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}

	email := strings.TrimSpace(authEmail)
	if err := validate.Struct(validate.ForgotPassword{Email: email}); err != nil {
		return fail(w, err)
	}
	return report(w, s, s.auth.ForgotPassword(ctx, email))
}

// runWhoami prints the current profile and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if _, err := s.token(ctx); err != nil {
		return fail(w, err)
	}

	user, err := s.auth.GetUser(ctx)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(user))
	} else {
		fmt.Fprintln(w, formatProfileHuman(user))
	}
	return exitOK
}

// formatProfileHuman lists profile fields with the name first
func formatProfileHuman(user client.User) string {
	keys := make([]string, 0, len(user))
	for k := range user {
		if k != "name" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	if name := user.Name(); name != "" {
		fmt.Fprintf(&sb, "%-12s %s\n", "name:", name)
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-12s %v\n", k+":", user[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}
