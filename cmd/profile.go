// ABOUTME: Profile and account commands for the securevault CLI
// ABOUTME: profile update, account delete, and account exists

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buggiebug/Secure-Vault/internal/validate"
)

var (
	profileSet   []string
	accountYes   bool
	accountEmail string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Update one or more profile fields, e.g.

  securevault profile update --set name=Ann --set city=Pune

Only the given fields are sent; the profile is re-read afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runProfileUpdate(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your account",
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete your account",
	Long: `Delete the account and every group and password in it.

Requires --yes. The stored session is removed afterwards.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runAccountDelete(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var accountExistsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Check whether an account exists for an email address",
	Long: `Check whether an account exists for an email address.

Exit codes:
  0 - Account exists
  1 - No account for this email
  2 - Error (connectivity, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runAccountExists(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(profileCmd, accountCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd, accountExistsCmd)

	profileUpdateCmd.Flags().StringArrayVar(&profileSet, "set", nil, "Field to update as key=value (repeatable)")
	accountDeleteCmd.Flags().BoolVar(&accountYes, "yes", false, "Confirm deletion")
	accountExistsCmd.Flags().StringVar(&accountEmail, "email", "", "Email address to look up")
	_ = accountExistsCmd.MarkFlagRequired("email")
}

// parseFields turns key=value pairs into an update document
func parseFields(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, usageError("at least one --set key=value is required")
	}
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, usageError("invalid --set %q, expected key=value", p)
		}
		if k == "_id" {
			return nil, usageError("_id cannot be changed")
		}
		fields[k] = v
	}
	return fields, nil
}

// runProfileUpdate applies --set fields and returns exit code
func runProfileUpdate(ctx context.Context, w io.Writer) int {
	fields, err := parseFields(profileSet)
	if err != nil {
		return fail(w, err)
	}

	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if _, err := s.token(ctx); err != nil {
		return fail(w, err)
	}

	return report(w, s, s.auth.UpdateProfile(ctx, fields))
}

// runAccountDelete deletes the account and returns exit code
func runAccountDelete(ctx context.Context, w io.Writer) int {
	if !accountYes {
		return fail(w, usageError("refusing to delete the account without --yes"))
	}

	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if _, err := s.token(ctx); err != nil {
		return fail(w, err)
	}

	return report(w, s, s.auth.DeleteAccount(ctx))
}

// runAccountExists reports whether an account exists and returns exit code
func runAccountExists(ctx context.Context, w io.Writer) int {
	email := strings.TrimSpace(accountEmail)
	if err := validate.Struct(validate.ForgotPassword{Email: email}); err != nil {
		return fail(w, err)
	}

	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}

	exists, err := s.auth.CheckUserExists(ctx, email)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(map[string]any{"email": email, "exists": exists}))
	} else if exists {
		fmt.Fprintf(w, "An account exists for %s\n", email)
	} else {
		fmt.Fprintf(w, "No account for %s\n", email)
	}

	if !exists {
		return exitFailed
	}
	return exitOK
}
