// ABOUTME: Tests for the add-password wizard
// ABOUTME: Validates default group, step progression, and emitted messages

package wizard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

func TestWizardDefaultGroup(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		expected string
	}{
		{"empty", "", vault.IndividualGroupID},
		{"all", vault.AllGroupID, vault.IndividualGroupID},
		{"explicit", "mail", "mail"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := New(vault.BuiltinGroups(), tc.group)
			if w.Entry().Group != tc.expected {
				t.Errorf("expected group %q, got %q", tc.expected, w.Entry().Group)
			}
		})
	}
}

func TestWizardStartsAtStepOne(t *testing.T) {
	w := New(nil, "")
	if w.Step() != 1 {
		t.Errorf("expected step 1, got %d", w.Step())
	}
	if !strings.Contains(w.View(), "Details") {
		t.Error("expected progress indicator to name the first step")
	}
}

func TestWizardAdvanceSteps(t *testing.T) {
	w := New([]client.Group{{ID: "individual", Name: "Individual"}}, "")
	w.entry.Title = "Gmail"
	w.entry.Password = "hunter2"

	w.advanceStep()
	if w.Step() != 2 {
		t.Fatalf("expected step 2, got %d", w.Step())
	}
	w.advanceStep()
	if w.Step() != 3 {
		t.Fatalf("expected step 3, got %d", w.Step())
	}

	_, cmd := w.advanceStep()
	if cmd == nil {
		t.Fatal("expected completion command")
	}
	msg, ok := cmd().(WizardCompleteMsg)
	if !ok {
		t.Fatalf("expected WizardCompleteMsg, got %T", cmd())
	}
	if msg.Entry.Title != "Gmail" || msg.Entry.Password != "hunter2" || msg.Entry.Group != "individual" {
		t.Errorf("unexpected entry %+v", msg.Entry)
	}
}

func TestWizardEntryTrims(t *testing.T) {
	w := New(nil, "")
	w.entry.Title = "  Bank  "
	w.entry.Notes = "\nnotes\n"
	w.entry.Password = " keep spaces "

	e := w.Entry()
	if e.Title != "Bank" || e.Notes != "notes" {
		t.Errorf("expected trimmed fields, got %+v", e)
	}
	if e.Password != " keep spaces " {
		t.Errorf("password must be stored as entered, got %q", e.Password)
	}
}

func TestWizardEscCancels(t *testing.T) {
	w := New(nil, "")
	_, cmd := w.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command on esc")
	}
	if _, ok := cmd().(WizardCancelledMsg); !ok {
		t.Errorf("expected WizardCancelledMsg, got %T", cmd())
	}
}

func TestRequired(t *testing.T) {
	v := required("Title")
	if err := v("  "); err == nil || err.Error() != "Title is required" {
		t.Errorf("expected required error, got %v", err)
	}
	if err := v("x"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
