// ABOUTME: Vault commands for the securevault CLI
// ABOUTME: groups list|add|delete and passwords list|add|delete

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

var (
	groupIcon  string
	groupColor string
	groupPIN   string

	pwGroup    string
	pwSearch   string
	pwShow     bool
	pwTitle    string
	pwUsername string
	pwPassword string
	pwWebsite  string
	pwNotes    string
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List and manage password groups",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runGroupsList(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups with their password counts",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runGroupsList(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var groupsAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runGroupsAdd(cmd.Context(), os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete ID|NAME",
	Short: "Delete a group and every password in it",
	Long: `Delete a group and every password in it.

Your PIN is verified with the server first; it is prompted for when --pin is
not given. The All group cannot be deleted. Deleting a default group removes
its passwords, but the group itself comes back.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runGroupsDelete(cmd.Context(), os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var passwordsCmd = &cobra.Command{
	Use:     "passwords",
	Aliases: []string{"pw"},
	Short:   "List and manage stored passwords",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runPasswordsList(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var passwordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List passwords, optionally by group or search text",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runPasswordsList(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var passwordsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new password",
	Long: `Store a new password. The password is prompted for when --password is not given.

Entries without --group are filed under Individual.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runPasswordsAdd(cmd.Context(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var passwordsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a stored password",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runPasswordsDelete(cmd.Context(), os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd, passwordsCmd)
	groupsCmd.AddCommand(groupsListCmd, groupsAddCmd, groupsDeleteCmd)
	passwordsCmd.AddCommand(passwordsListCmd, passwordsAddCmd, passwordsDeleteCmd)

	groupsAddCmd.Flags().StringVar(&groupIcon, "icon", "", "Emoji shown next to the group (default "+vault.DefaultGroupIcon+")")
	groupsAddCmd.Flags().StringVar(&groupColor, "color", "", "Hex color, picked from the palette when omitted")
	groupsDeleteCmd.Flags().StringVar(&groupPIN, "pin", "", "Your PIN (prompted when omitted)")

	for _, c := range []*cobra.Command{passwordsCmd, passwordsListCmd} {
		c.Flags().StringVar(&pwGroup, "group", vault.AllGroupID, "Group id or name")
		c.Flags().StringVar(&pwSearch, "search", "", "Only entries whose title, username, website, or notes contain this text")
		c.Flags().BoolVar(&pwShow, "show", false, "Print passwords in clear text")
	}
	passwordsAddCmd.Flags().StringVar(&pwTitle, "title", "", "Title (required)")
	passwordsAddCmd.Flags().StringVar(&pwUsername, "username", "", "Username")
	passwordsAddCmd.Flags().StringVar(&pwPassword, "password", "", "Password (prompted when omitted)")
	passwordsAddCmd.Flags().StringVar(&pwWebsite, "website", "", "Website")
	passwordsAddCmd.Flags().StringVar(&pwNotes, "notes", "", "Notes")
	passwordsAddCmd.Flags().StringVar(&pwGroup, "group", "", "Group id or name (default individual)")
	_ = passwordsAddCmd.MarkFlagRequired("title")
}

// openVault opens a session and fetches groups and passwords
func openVault(ctx context.Context) (*session, error) {
	s, err := openSession()
	if err != nil {
		return nil, err
	}
	if _, err := s.token(ctx); err != nil {
		return nil, err
	}
	if err := s.vault.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveGroup finds a group by id, then by case-insensitive name
func resolveGroup(groups []client.Group, ref string) (client.Group, bool) {
	ref = strings.TrimSpace(ref)
	for _, g := range groups {
		if g.ID == ref {
			return g, true
		}
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, ref) {
			return g, true
		}
	}
	return client.Group{}, false
}

// groupRow is one line of groups list output
type groupRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// runGroupsList prints every group and returns exit code
func runGroupsList(ctx context.Context, w io.Writer) int {
	s, err := openVault(ctx)
	if err != nil {
		return fail(w, err)
	}

	var rows []groupRow
	for _, g := range s.vault.Snapshot().Groups {
		rows = append(rows, groupRow{
			ID:    g.ID,
			Name:  g.Name,
			Icon:  s.vault.GroupIcon(g.ID),
			Color: s.vault.GroupColor(g.ID),
			Count: s.vault.Counts(g.ID).Filtered,
		})
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(rows))
	} else {
		fmt.Fprint(w, formatGroupsHuman(rows))
	}
	return exitOK
}

// formatGroupsHuman renders groups as an aligned table
func formatGroupsHuman(rows []groupRow) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPASSWORDS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s %s\t%d\n", r.ID, r.Icon, r.Name, r.Count)
	}
	tw.Flush()
	return sb.String()
}

// runGroupsAdd creates a group and returns exit code
func runGroupsAdd(ctx context.Context, w io.Writer, name string) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if _, err := s.token(ctx); err != nil {
		return fail(w, err)
	}

	err = s.vault.AddGroup(ctx, client.NewGroup{Name: name, Icon: groupIcon, Color: groupColor})
	return report(w, s, err)
}

// runGroupsDelete verifies the PIN, deletes a group, and returns exit code
func runGroupsDelete(ctx context.Context, w io.Writer, ref string) int {
	s, err := openVault(ctx)
	if err != nil {
		return fail(w, err)
	}

	g, ok := resolveGroup(s.vault.Snapshot().Groups, ref)
	if !ok {
		return fail(w, usageError("no group %q", ref))
	}
	if g.ID == vault.AllGroupID {
		return fail(w, vault.ErrReservedGroup)
	}

	if groupPIN == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, vault.DeletePrompt(g))
	}
	pin, err := readSecret(groupPIN, "pin", "Enter your PIN to confirm: ")
	if err != nil {
		return fail(w, err)
	}

	return report(w, s, s.vault.DeleteGroup(ctx, g.ID, pin))
}

// passwordRow is one entry of passwords list output
type passwordRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
	Website  string `json:"website,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Group    string `json:"group"`
}

// runPasswordsList prints matching entries and returns exit code
func runPasswordsList(ctx context.Context, w io.Writer) int {
	s, err := openVault(ctx)
	if err != nil {
		return fail(w, err)
	}

	groupID := vault.AllGroupID
	if pwGroup != "" && pwGroup != vault.AllGroupID {
		g, ok := resolveGroup(s.vault.Snapshot().Groups, pwGroup)
		if !ok {
			return fail(w, usageError("no group %q", pwGroup))
		}
		groupID = g.ID
	}

	rows := []passwordRow{}
	for _, p := range s.vault.Search(pwSearch, groupID) {
		secret := p.Password
		if !pwShow {
			secret = maskSecret(secret)
		}
		rows = append(rows, passwordRow{
			ID:       p.ID,
			Title:    p.Title,
			Username: p.Username,
			Password: secret,
			Website:  p.Website,
			Notes:    p.Notes,
			Group:    s.vault.GroupName(p.Group),
		})
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(rows))
		return exitOK
	}

	c := s.vault.Counts(groupID)
	fmt.Fprintf(w, "%s: %d of %d passwords\n", c.GroupName, len(rows), c.Total)
	if len(rows) > 0 {
		fmt.Fprint(w, formatPasswordsHuman(rows))
	}
	return exitOK
}

// formatPasswordsHuman renders entries as an aligned table
func formatPasswordsHuman(rows []passwordRow) string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUSERNAME\tPASSWORD\tWEBSITE\tGROUP")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Username, r.Password, r.Website, r.Group)
	}
	tw.Flush()
	return sb.String()
}

// maskSecret hides a password, keeping no hint of its length beyond 8
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("•", min(len([]rune(s)), 8))
}

// runPasswordsAdd stores an entry and returns exit code
func runPasswordsAdd(ctx context.Context, w io.Writer) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if _, err := s.token(ctx); err != nil {
		return fail(w, err)
	}

	groupID := ""
	if pwGroup != "" {
		if err := s.vault.FetchGroups(ctx); err != nil {
			return fail(w, err)
		}
		g, ok := resolveGroup(s.vault.AvailableGroups(), pwGroup)
		if !ok {
			return fail(w, usageError("no group %q", pwGroup))
		}
		groupID = g.ID
	}

	secret, err := readSecret(pwPassword, "password", "Password: ")
	if err != nil {
		return fail(w, err)
	}

	err = s.vault.AddPassword(ctx, client.NewEntry{
		Title:    pwTitle,
		Username: strings.TrimSpace(pwUsername),
		Password: secret,
		Website:  strings.TrimSpace(pwWebsite),
		Notes:    strings.TrimSpace(pwNotes),
		Group:    groupID,
	})
	return report(w, s, err)
}

// runPasswordsDelete removes one entry and returns exit code
func runPasswordsDelete(ctx context.Context, w io.Writer, id string) int {
	s, err := openSession()
	if err != nil {
		return fail(w, err)
	}
	if _, err := s.token(ctx); err != nil {
		return fail(w, err)
	}
	return report(w, s, s.vault.DeletePassword(ctx, id))
}
