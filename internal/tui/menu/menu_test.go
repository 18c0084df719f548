// ABOUTME: Tests for the auth menu
// ABOUTME: Validates option order, cursor bounds, and emitted messages

package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMenuOptions(t *testing.T) {
	m := New()

	if len(m.options) != 3 {
		t.Errorf("expected 3 options, got %d", len(m.options))
	}
	if m.options[0].label != "Log in" {
		t.Errorf("expected first option 'Log in', got %s", m.options[0].label)
	}
	if m.Selected() != ChoiceLogin {
		t.Errorf("expected login preselected, got %s", m.Selected())
	}
}

func TestMenuCursorBounds(t *testing.T) {
	m := New()

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("expected cursor to stay at 0, got %d", m.cursor)
	}

	for i := 0; i < 5; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.Selected() != ChoiceForgot {
		t.Errorf("expected cursor clamped on forgot, got %s", m.Selected())
	}
}

func TestMenuEnterEmitsSelection(t *testing.T) {
	m := New()
	m.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("expected SelectedMsg, got %T", cmd())
	}
	if msg.Choice != ChoiceSignup {
		t.Errorf("expected signup, got %s", msg.Choice)
	}
}

func TestMenuQuit(t *testing.T) {
	m := New()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a command on q")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}

func TestChoiceString(t *testing.T) {
	tests := []struct {
		choice   Choice
		expected string
	}{
		{ChoiceLogin, "login"},
		{ChoiceSignup, "signup"},
		{ChoiceForgot, "forgot"},
		{Choice(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.choice.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
