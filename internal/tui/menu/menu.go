// ABOUTME: Welcome menu shown when no session is active
// ABOUTME: Lets the user choose between logging in, signing up, or resetting a PIN

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
)

// Choice represents the selected auth action
type Choice int

const (
	ChoiceLogin Choice = iota
	ChoiceSignup
	ChoiceForgot
)

// SelectedMsg is sent when the user picks an option
type SelectedMsg struct {
	Choice Choice
}

// CancelledMsg is sent when the user leaves the menu
type CancelledMsg struct{}

type option struct {
	label string
	value Choice
}

// Menu represents the auth action menu
type Menu struct {
	options []option
	cursor  int
}

// New creates a new auth menu
func New() *Menu {
	return &Menu{
		options: []option{
			{label: "Log in", value: ChoiceLogin},
			{label: "Create an account", value: ChoiceSignup},
			{label: "Forgot PIN", value: ChoiceForgot},
		},
	}
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		choice := m.options[m.cursor].value
		return m, func() tea.Msg { return SelectedMsg{Choice: choice} }
	case "q", "esc":
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, nil
}

// Selected returns the option under the cursor
func (m *Menu) Selected() Choice {
	return m.options[m.cursor].value
}

// View implements tea.Model
func (m *Menu) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Lock.String() + " Welcome to SecureVault"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("Your passwords, protected by a 6-digit PIN"))
	sb.WriteString("\n")

	pointer := lipgloss.NewStyle().Foreground(styles.Primary).Render("> ")
	for i, opt := range m.options {
		if i == m.cursor {
			sb.WriteString(pointer + styles.ValueStyle.Render(opt.label))
		} else {
			sb.WriteString("  " + lipgloss.NewStyle().Foreground(styles.Muted).Render(opt.label))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// String returns the string representation of a Choice
func (c Choice) String() string {
	switch c {
	case ChoiceLogin:
		return "login"
	case ChoiceSignup:
		return "signup"
	case ChoiceForgot:
		return "forgot"
	default:
		return "unknown"
	}
}
