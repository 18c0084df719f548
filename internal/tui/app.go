// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/auth"
	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/opstate"
	"github.com/buggiebug/Secure-Vault/internal/tui/dashboard"
	"github.com/buggiebug/Secure-Vault/internal/tui/forms"
	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
	"github.com/buggiebug/Secure-Vault/internal/tui/menu"
	"github.com/buggiebug/Secure-Vault/internal/tui/overview"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
	"github.com/buggiebug/Secure-Vault/internal/tui/widgets"
	"github.com/buggiebug/Secure-Vault/internal/tui/wizard"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenInitError
	ScreenAuthMenu
	ScreenLogin
	ScreenSignup
	ScreenForgot
	ScreenTransition
	ScreenVault
	ScreenAddPassword
	ScreenAddGroup
	ScreenDeleteGroup
	ScreenConfirm
)

// Layout constants
const (
	minTerminalWidth  = 80 // Minimum width before using single-column layout
	minOverviewHeight = 30 // Minimum height before the overview joins the actions pane
	panelPadding      = 4  // Total horizontal padding from panel borders (2 each side)
)

// Timing
const (
	maxInitAttempts    = 3
	initRetryDelay     = time.Second
	transitionDuration = 800 * time.Millisecond
	toastDuration      = 3 * time.Second
)

// confirmAction is what an accepted confirmation does
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmLogout
	confirmDeletePassword
)

// App is the root model for the TUI
type App struct {
	ctx     context.Context
	auth    auth.Machine
	vault   vault.Machine
	notices *notify.Channel

	screen Screen
	width  int
	height int

	spinner      spinner.Model
	working      string // label shown while an operation is in flight
	initAttempts int
	lastSync     time.Time

	toast    *notify.Notice
	toastSeq int

	// Child models
	menu      *menu.Menu
	form      *forms.Form
	wizard    *wizard.Wizard
	dashboard *dashboard.Dashboard
	overview  *overview.Overview

	confirm   confirmAction
	confirmID string
}

// New creates a new TUI application. notices may be nil when nothing feeds
// the toast line.
func New(ctx context.Context, authM auth.Machine, vaultM vault.Machine, notices *notify.Channel) *App {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return &App{
		ctx:     ctx,
		auth:    authM,
		vault:   vaultM,
		notices: notices,
		screen:  ScreenLoading,
		spinner: sp,
		menu:    menu.New(),
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.initialize(), a.waitForNotice())
}

// Screen returns the screen currently shown
func (a *App) Screen() Screen {
	return a.screen
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.dashboard != nil {
			a.dashboard.SetSize(a.dashboardWidth(), a.contentHeight())
		}
		if a.overview != nil {
			a.overview.SetWidth(a.overviewWidth())
		}
		if a.wizard != nil {
			a.wizard.SetWidth(msg.Width)
		}
		return a.forwardToChild(msg)

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.working != "" {
			return a, nil
		}

		// Route to current screen
		switch a.screen {
		case ScreenInitError:
			return a.updateInitError(msg)
		case ScreenAuthMenu:
			return a.updateMenu(msg)
		case ScreenVault:
			return a.updateVault(msg)
		case ScreenLoading, ScreenTransition:
			return a, nil
		}
		return a.forwardToChild(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case initDoneMsg:
		return a.handleInitDone()

	case retryInitMsg:
		if a.screen != ScreenInitError {
			return a, nil
		}
		a.screen = ScreenLoading
		return a, a.initialize()

	case menu.SelectedMsg:
		return a.openAuthForm(msg.Choice)

	case menu.CancelledMsg:
		return a, tea.Quit

	case forms.SubmittedMsg:
		return a.handleSubmitted(msg)

	case forms.CancelledMsg:
		a.form = nil
		a.confirm = confirmNone
		if isAuthForm(msg.Kind) {
			a.screen = ScreenAuthMenu
		} else {
			a.screen = ScreenVault
		}
		return a, nil

	case authDoneMsg:
		return a.handleAuthDone(msg)

	case transitionDoneMsg:
		return a.enterVault()

	case wizard.WizardCompleteMsg:
		a.wizard = nil
		a.working = "Saving password…"
		return a, a.addPassword(msg.Entry)

	case wizard.WizardCancelledMsg:
		a.wizard = nil
		a.screen = ScreenVault
		return a, nil

	case vaultLoadedMsg:
		a.working = ""
		if msg.err == nil {
			a.lastSync = time.Now()
		}
		return a, nil

	case vaultOpDoneMsg:
		return a.handleVaultOpDone(msg)

	case loggedOutMsg:
		a.working = ""
		a.dashboard = nil
		a.overview = nil
		a.lastSync = time.Time{}
		a.menu = menu.New()
		a.screen = ScreenAuthMenu
		return a, nil

	case noticeMsg:
		n := msg.notice
		a.toast = &n
		a.toastSeq++
		return a, tea.Batch(a.waitForNotice(), clearToastAfter(a.toastSeq))

	case clearToastMsg:
		if msg.seq == a.toastSeq {
			a.toast = nil
		}
		return a, nil

	default:
		// Forward unknown messages to the active child (needed for huh form internals)
		return a.forwardToChild(msg)
	}
}

// forwardToChild passes msg to whatever model owns the current screen
func (a *App) forwardToChild(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch {
	case a.wizard != nil && a.screen == ScreenAddPassword:
		model, cmd := a.wizard.Update(msg)
		a.wizard = model.(*wizard.Wizard)
		return a, cmd
	case a.form != nil && isFormScreen(a.screen):
		model, cmd := a.form.Update(msg)
		a.form = model.(*forms.Form)
		return a, cmd
	case a.dashboard != nil && a.screen == ScreenVault:
		_, cmd := a.dashboard.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateInitError(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if a.initAttempts >= maxInitAttempts {
			a.initAttempts = 0
			a.screen = ScreenLoading
			return a, a.initialize()
		}
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.menu == nil {
		return a, nil
	}
	model, cmd := a.menu.Update(msg)
	a.menu = model.(*menu.Menu)
	return a, cmd
}

func (a *App) updateVault(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.dashboard == nil {
		return a, nil
	}
	if handled, cmd := a.dashboard.Update(msg); handled {
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		a.working = "Refreshing…"
		return a, a.loadVault()
	case "a":
		a.wizard = wizard.New(a.vault.AvailableGroups(), a.dashboard.Group())
		a.wizard.SetWidth(a.width)
		a.screen = ScreenAddPassword
		return a, a.wizard.Init()
	case "g":
		return a.openForm(ScreenAddGroup, forms.AddGroup())
	case "d":
		g, ok := a.currentGroup()
		if !ok || g.ID == vault.AllGroupID {
			return a, nil
		}
		return a.openForm(ScreenDeleteGroup, forms.DeleteGroup(g))
	case "x":
		e, ok := a.dashboard.Selected()
		if !ok {
			return a, nil
		}
		a.confirm = confirmDeletePassword
		a.confirmID = e.ID
		return a.openForm(ScreenConfirm, forms.Confirm(
			"Delete password?",
			fmt.Sprintf("%q will be removed from your vault.", e.Title),
			"Delete",
		))
	case "L":
		a.confirm = confirmLogout
		return a.openForm(ScreenConfirm, forms.Confirm(
			"Log out?",
			"You will need your PIN to sign in again.",
			"Log out",
		))
	}
	return a, nil
}

func (a *App) openAuthForm(choice menu.Choice) (tea.Model, tea.Cmd) {
	a.auth.ClearError()
	switch choice {
	case menu.ChoiceLogin:
		return a.openForm(ScreenLogin, forms.Login(""))
	case menu.ChoiceSignup:
		return a.openForm(ScreenSignup, forms.Signup())
	case menu.ChoiceForgot:
		return a.openForm(ScreenForgot, forms.Forgot())
	}
	return a, nil
}

func (a *App) openForm(screen Screen, f *forms.Form) (tea.Model, tea.Cmd) {
	a.form = f
	a.screen = screen
	return a, f.Init()
}

func (a *App) handleInitDone() (tea.Model, tea.Cmd) {
	a.initAttempts++
	st := a.auth.Snapshot()

	if st.Loading.Is(opstate.Failed, auth.OpInitialize) {
		a.screen = ScreenInitError
		if a.initAttempts < maxInitAttempts {
			return a, tea.Tick(initRetryDelay, func(time.Time) tea.Msg { return retryInitMsg{} })
		}
		return a, nil
	}

	a.initAttempts = 0
	if st.Session.IsLoggedIn {
		return a.enterVault()
	}
	a.screen = ScreenAuthMenu
	return a, nil
}

func (a *App) handleSubmitted(msg forms.SubmittedMsg) (tea.Model, tea.Cmd) {
	v := msg.Values
	switch msg.Kind {
	case forms.KindLogin:
		a.working = "Logging in…"
		return a, a.login(client.LoginRequest{Email: v.Email(), Mobile: v.Mobile(), Password: v.PIN})
	case forms.KindSignup:
		a.working = "Creating account…"
		return a, a.signup(client.SignupRequest{Name: strings.TrimSpace(v.Name), Email: v.Email(), Mobile: v.Mobile(), Password: v.PIN})
	case forms.KindForgot:
		a.working = "Sending reset link…"
		return a, a.forgotPassword(strings.TrimSpace(v.Contact))
	case forms.KindAddGroup:
		a.working = "Creating group…"
		return a, a.addGroup(client.NewGroup{Name: v.GroupName, Icon: strings.TrimSpace(v.GroupIcon)})
	case forms.KindDeleteGroup:
		a.working = "Deleting group…"
		return a, a.deleteGroup(v.GroupID, v.PIN)
	case forms.KindConfirm:
		action, id := a.confirm, a.confirmID
		a.confirm, a.confirmID = confirmNone, ""
		switch action {
		case confirmLogout:
			a.working = "Logging out…"
			return a, a.logout()
		case confirmDeletePassword:
			a.working = "Deleting password…"
			return a, a.deletePassword(id)
		}
		a.screen = ScreenVault
	}
	return a, nil
}

func (a *App) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	a.working = ""

	if msg.err != nil {
		// Reopen an empty form of the same kind; the error stays visible above it.
		switch msg.op {
		case auth.OpLogin:
			contact := ""
			if a.form != nil {
				contact = a.form.Values().Contact
			}
			return a.openForm(ScreenLogin, forms.Login(contact))
		case auth.OpSignup:
			return a.openForm(ScreenSignup, forms.Signup())
		case auth.OpForgotPassword:
			return a.openForm(ScreenForgot, forms.Forgot())
		}
		return a, nil
	}

	a.form = nil
	st := a.auth.Snapshot()
	if auth.ShowTransition(st) {
		a.screen = ScreenTransition
		return a, tea.Tick(transitionDuration, func(time.Time) tea.Msg { return transitionDoneMsg{} })
	}
	a.menu = menu.New()
	a.screen = ScreenAuthMenu
	return a, nil
}

func (a *App) handleVaultOpDone(msg vaultOpDoneMsg) (tea.Model, tea.Cmd) {
	a.working = ""
	a.form = nil
	a.screen = ScreenVault
	if a.dashboard == nil {
		return a, nil
	}
	if msg.op == vault.OpDeleteGroup && msg.err == nil {
		a.dashboard.SelectGroup(vault.AllGroupID)
	}
	return a, nil
}

func (a *App) enterVault() (tea.Model, tea.Cmd) {
	a.form = nil
	a.screen = ScreenVault
	a.dashboard = dashboard.New(a.vault, a.dashboardWidth(), a.contentHeight())
	a.overview = overview.New(a.vault, a.overviewWidth())
	a.working = "Loading vault…"
	return a, a.loadVault()
}

func (a *App) currentGroup() (client.Group, bool) {
	id := a.dashboard.Group()
	for _, g := range a.vault.Snapshot().Groups {
		if g.ID == id {
			return g, true
		}
	}
	return client.Group{}, false
}

func isAuthForm(k forms.Kind) bool {
	return k == forms.KindLogin || k == forms.KindSignup || k == forms.KindForgot
}

func isFormScreen(s Screen) bool {
	switch s {
	case ScreenLogin, ScreenSignup, ScreenForgot, ScreenAddGroup, ScreenDeleteGroup, ScreenConfirm:
		return true
	}
	return false
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch {
	case a.working != "":
		content = a.viewWorking(a.working)
	case a.screen == ScreenLoading:
		content = a.viewWorking("Unlocking vault…")
	case a.screen == ScreenInitError:
		content = a.viewInitError()
	case a.screen == ScreenAuthMenu:
		content = a.viewMenu()
	case a.screen == ScreenTransition:
		content = a.viewWorking("Signing in…")
	case a.screen == ScreenVault:
		content = a.viewVault()
	case a.screen == ScreenAddPassword:
		content = a.viewWizard()
	default:
		content = a.viewForm()
	}

	if t := a.viewToast(); t != "" {
		content += "\n" + t
	}
	return a.wrapWithFrame(content)
}

func (a *App) viewWorking(label string) string {
	return styles.Panel.Render(a.spinner.View() + " " + label)
}

func (a *App) viewInitError() string {
	st := a.auth.Snapshot()
	var sb strings.Builder
	sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " Could not read your saved session"))
	sb.WriteString("\n\n")
	if st.Loading.Error != "" {
		sb.WriteString(styles.Subtitle.Render(st.Loading.Error))
		sb.WriteString("\n\n")
	}
	if a.initAttempts < maxInitAttempts {
		sb.WriteString(fmt.Sprintf("Retrying (attempt %d of %d)…", a.initAttempts+1, maxInitAttempts))
	} else {
		sb.WriteString("Press r to try again or q to quit.")
	}
	return styles.Panel.Render(sb.String())
}

// viewMenu renders the menu screen
func (a *App) viewMenu() string {
	if a.menu != nil {
		return a.menu.View()
	}
	return ""
}

func (a *App) viewForm() string {
	if a.form == nil {
		return ""
	}
	var sb strings.Builder
	if isAuthForm(a.form.Kind()) {
		if st := a.auth.Snapshot(); st.Loading.Status == opstate.Failed && st.Loading.Error != "" {
			sb.WriteString(widgets.StatusText(st.Loading.Error, widgets.StatusCritical))
			sb.WriteString("\n\n")
		}
	}
	sb.WriteString(a.form.View())
	return styles.Panel.Render(sb.String())
}

// viewWizard renders the wizard screen
func (a *App) viewWizard() string {
	if a.wizard != nil {
		return a.wizard.View()
	}
	return ""
}

// viewVault renders the vault with an actions pane
func (a *App) viewVault() string {
	leftPane := ""
	if a.dashboard != nil {
		leftPane = styles.ActivePanel.Width(a.dashboardWidth()).Render(a.dashboard.View())
	} else {
		leftPane = styles.Panel.Width(a.dashboardWidth()).Render("Loading...")
	}

	if a.width < minTerminalWidth {
		return leftPane
	}

	// Right pane: overview when there is room, then the available actions
	rightContent := ""
	if a.overview != nil && a.height >= minOverviewHeight {
		rightContent = a.overview.View() + "\n\n"
	}
	rightContent += styles.Title.Render(icons.Key.String()+" Actions") + "\n\n"
	rightContent += icons.Add.String() + " a  Add password\n"
	rightContent += icons.Folder.String() + " g  New group\n"
	if a.dashboard != nil && a.dashboard.Group() != vault.AllGroupID {
		rightContent += icons.Delete.String() + " d  Delete group\n"
	}
	rightContent += icons.Delete.String() + " x  Delete password\n"
	rightContent += icons.Search.String() + " /  Search\n"
	rightContent += icons.Refresh.String() + " r  Refresh\n"
	rightContent += icons.Logout.String() + " L  Log out\n"
	rightContent += icons.Quit.String() + " q  Quit\n"
	rightPane := styles.Panel.Width(a.actionsWidth()).Render(rightContent)

	// Join panes side by side
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
}

func (a *App) viewToast() string {
	if a.toast == nil {
		return ""
	}
	return " " + widgets.Toast(*a.toast)
}

// dashboardWidth calculates the width for the vault pane
func (a *App) dashboardWidth() int {
	if a.width < minTerminalWidth {
		return max(0, a.width-panelPadding)
	}
	return (a.width-panelPadding)*2/3
}

// actionsWidth calculates the width for the actions pane
func (a *App) actionsWidth() int {
	return a.width - a.dashboardWidth() - 4
}

// overviewWidth is the text width inside the actions pane
func (a *App) overviewWidth() int {
	return max(0, a.actionsWidth()-panelPadding)
}

// contentHeight calculates the height available for dashboard content
func (a *App) contentHeight() int {
	// Header, blank line, panel border+padding (4), blank line, footer, toast
	return a.height - 9
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	// Guard against zero/small width before WindowSizeMsg is received
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s", icons.App.String(), titleStyle.Render("SecureVault"))

	// Signed-in user on vault screens
	rightText := ""
	if a.inVault() {
		if st := a.auth.Snapshot(); st.Session.IsLoggedIn {
			name := st.Session.User.Name()
			if name == "" {
				name = "signed in"
			}
			rightText = contextStyle.Render(icons.User.String()+" "+name) + " "
		}
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := styles.KeyStyle
	labelStyle := styles.Help
	statusStyle := styles.StatusOK

	shortcuts := a.shortcuts()

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	// Right side status (last sync time)
	rightText := ""
	rightPlainText := ""
	if !a.lastSync.IsZero() && a.screen == ScreenVault {
		elapsed := a.formatTimeSince(a.lastSync)
		rightText = statusStyle.Render("Synced "+elapsed) + " "
		rightPlainText = "Synced " + elapsed + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// shortcuts lists the key hints for the current screen
func (a *App) shortcuts() []string {
	if a.working != "" {
		return []string{"ctrl+c Quit"}
	}
	switch a.screen {
	case ScreenInitError:
		if a.initAttempts >= maxInitAttempts {
			return []string{"r Retry", "q Quit"}
		}
		return []string{"ctrl+c Quit"}
	case ScreenAuthMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenLogin, ScreenSignup, ScreenForgot, ScreenAddGroup, ScreenDeleteGroup:
		return []string{"Tab Next", "Enter Submit", "Esc Back"}
	case ScreenConfirm:
		return []string{"←→ Choose", "Enter Confirm", "Esc Cancel"}
	case ScreenAddPassword:
		return []string{"Tab Next", "Enter Continue", "Esc Cancel"}
	case ScreenVault:
		if a.dashboard != nil && a.dashboard.Searching() {
			return []string{"Enter Done", "Esc Clear"}
		}
		return []string{"←→ Group", "↑↓ Select", "Enter Reveal", "a Add", "L Logout", "q Quit"}
	}
	return nil
}

func (a *App) inVault() bool {
	switch a.screen {
	case ScreenVault, ScreenAddPassword, ScreenAddGroup, ScreenDeleteGroup, ScreenConfirm:
		return true
	}
	return false
}

// formatTimeSince formats a duration since the given time in human-readable form
func (a *App) formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	}

	hours := int(d.Hours())
	if hours == 1 {
		return "1h ago"
	}
	return fmt.Sprintf("%dh ago", hours)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until the user quits
func Run(ctx context.Context, authM auth.Machine, vaultM vault.Machine, notices *notify.Channel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := New(ctx, authM, vaultM, notices)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
