// ABOUTME: tea.Cmd factories that run state-machine operations off the UI loop
// ABOUTME: Each command reports completion with a message handled by App.Update

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buggiebug/Secure-Vault/internal/auth"
	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// initDoneMsg is sent when session restore finishes
type initDoneMsg struct {
	res auth.InitResult
}

// retryInitMsg triggers an automatic restore retry
type retryInitMsg struct{}

// authDoneMsg is sent when login, signup, or forgot-password completes
type authDoneMsg struct {
	op  string
	err error
}

// transitionDoneMsg ends the signing-in screen
type transitionDoneMsg struct{}

// vaultLoadedMsg is sent when groups and passwords have been fetched
type vaultLoadedMsg struct {
	err error
}

// vaultOpDoneMsg is sent when a vault mutation completes
type vaultOpDoneMsg struct {
	op  string
	err error
}

// loggedOutMsg is sent once the token is gone and the vault is cleared
type loggedOutMsg struct{}

// noticeMsg carries one notification to the toast line
type noticeMsg struct {
	notice notify.Notice
}

// clearToastMsg hides the toast unless a newer one replaced it
type clearToastMsg struct {
	seq int
}

func (a *App) initialize() tea.Cmd {
	return func() tea.Msg {
		res, _ := a.auth.Initialize(a.ctx)
		return initDoneMsg{res: res}
	}
}

func (a *App) login(req client.LoginRequest) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{op: auth.OpLogin, err: a.auth.Login(a.ctx, req)}
	}
}

func (a *App) signup(req client.SignupRequest) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{op: auth.OpSignup, err: a.auth.Signup(a.ctx, req)}
	}
}

func (a *App) forgotPassword(email string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{op: auth.OpForgotPassword, err: a.auth.ForgotPassword(a.ctx, email)}
	}
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		_ = a.auth.Logout(a.ctx)
		a.vault.Reset()
		return loggedOutMsg{}
	}
}

func (a *App) loadVault() tea.Cmd {
	return func() tea.Msg {
		return vaultLoadedMsg{err: a.vault.Load(a.ctx)}
	}
}

func (a *App) addGroup(g client.NewGroup) tea.Cmd {
	return func() tea.Msg {
		return vaultOpDoneMsg{op: vault.OpAddGroup, err: a.vault.AddGroup(a.ctx, g)}
	}
}

func (a *App) deleteGroup(id, pin string) tea.Cmd {
	return func() tea.Msg {
		return vaultOpDoneMsg{op: vault.OpDeleteGroup, err: a.vault.DeleteGroup(a.ctx, id, pin)}
	}
}

func (a *App) addPassword(e client.NewEntry) tea.Cmd {
	return func() tea.Msg {
		return vaultOpDoneMsg{op: vault.OpAddPassword, err: a.vault.AddPassword(a.ctx, e)}
	}
}

func (a *App) deletePassword(id string) tea.Cmd {
	return func() tea.Msg {
		return vaultOpDoneMsg{op: vault.OpDeletePassword, err: a.vault.DeletePassword(a.ctx, id)}
	}
}

// waitForNotice blocks on the notification channel and re-arms itself from
// Update each time a notice arrives.
func (a *App) waitForNotice() tea.Cmd {
	if a.notices == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := a.notices.Next(a.ctx)
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

func clearToastAfter(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} })
}
