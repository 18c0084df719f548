// ABOUTME: Tests for the vault overview component
// ABOUTME: Validates group counts and hygiene warnings

package overview

import (
	"strings"
	"testing"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

type fakeSource struct {
	state vault.State
}

func (f fakeSource) Snapshot() vault.State { return f.state }

func (f fakeSource) Counts(groupID string) vault.Counts {
	n := 0
	for _, p := range f.state.Passwords {
		if groupID == vault.AllGroupID || p.Group == groupID {
			n++
		}
	}
	return vault.Counts{Total: len(f.state.Passwords), Filtered: n}
}

func (f fakeSource) GroupIcon(id string) string {
	for _, g := range f.state.Groups {
		if g.ID == id {
			return g.Icon
		}
	}
	return vault.DefaultGroupIcon
}

func TestOverviewView(t *testing.T) {
	src := fakeSource{state: vault.State{
		Groups: append(vault.BuiltinGroups(), client.Group{ID: "g1", Name: "Work", Icon: "💼"}),
		Passwords: []client.PasswordEntry{
			{ID: "p1", Title: "GitHub", Password: "long-enough-1", Group: "g1"},
			{ID: "p2", Title: "GitLab", Password: "long-enough-2", Group: "g1"},
			{ID: "p3", Title: "Bank", Password: "long-enough-3", Group: "financial"},
		},
	}}

	view := New(src, 40).View()

	if !strings.Contains(view, "Overview") {
		t.Error("expected view to contain 'Overview'")
	}
	if !strings.Contains(view, "💼 Work 2") {
		t.Errorf("expected Work count in view:\n%s", view)
	}
	if strings.Contains(view, "All") {
		t.Errorf("expected the All group to be left out:\n%s", view)
	}
	if strings.Contains(view, "Warnings") {
		t.Errorf("expected no warnings section:\n%s", view)
	}
}

func TestOverviewViewWithWarnings(t *testing.T) {
	src := fakeSource{state: vault.State{
		Groups: vault.BuiltinGroups(),
		Passwords: []client.PasswordEntry{
			{ID: "p1", Title: "Mail", Password: "same-password"},
			{ID: "p2", Title: "Chat", Password: "same-password"},
			{ID: "p3", Title: "Router", Password: "admin"},
		},
	}}

	view := New(src, 60).View()

	if !strings.Contains(view, "Warnings") {
		t.Fatalf("expected warnings section:\n%s", view)
	}
	if !strings.Contains(view, "Chat, Mail") {
		t.Errorf("expected shared-password warning:\n%s", view)
	}
	if !strings.Contains(view, "Router") {
		t.Errorf("expected short-password warning:\n%s", view)
	}
}

func TestOverviewViewCapsWarnings(t *testing.T) {
	var entries []client.PasswordEntry
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		entries = append(entries, client.PasswordEntry{ID: title, Title: title, Password: "pw-" + title})
	}
	src := fakeSource{state: vault.State{Groups: vault.BuiltinGroups(), Passwords: entries}}

	view := New(src, 60).View()

	if !strings.Contains(view, "and 2 more") {
		t.Errorf("expected remaining warnings to be summarised:\n%s", view)
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name    string
		entries []client.PasswordEntry
		want    []string // severities in order
	}{
		{"none", nil, nil},
		{"strong and unique", []client.PasswordEntry{{Title: "a", Password: "0123456789"}, {Title: "b", Password: "9876543210"}}, nil},
		{"empty ignored", []client.PasswordEntry{{Title: "a"}, {Title: "b"}}, nil},
		{"short", []client.PasswordEntry{{Title: "a", Password: "1234567"}}, []string{SeverityWarning}},
		{"exactly minimum", []client.PasswordEntry{{Title: "a", Password: "12345678"}}, nil},
		{
			"shared and short",
			[]client.PasswordEntry{{Title: "a", Password: "pw"}, {Title: "b", Password: "pw"}},
			[]string{SeverityCritical, SeverityWarning, SeverityWarning},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Warnings(tt.entries)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d warnings, got %+v", len(tt.want), got)
			}
			for i, w := range got {
				if w.Severity != tt.want[i] {
					t.Errorf("warning %d: expected %s, got %s", i, tt.want[i], w.Severity)
				}
			}
		})
	}
}
