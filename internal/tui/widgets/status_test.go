// ABOUTME: Tests for status, chip, and toast widgets
// ABOUTME: Checks icons per level and how notifications map onto levels

package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
)

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		level StatusLevel
		icon  icons.Icon
	}{
		{StatusOK, icons.CheckOK},
		{StatusWarning, icons.Warning},
		{StatusCritical, icons.Critical},
		{StatusInfo, icons.Info},
	}
	for _, tt := range tests {
		if got := StatusIcon(tt.level); !strings.Contains(got, tt.icon.String()) {
			t.Errorf("StatusIcon(%d) = %q, want icon %q", tt.level, got, tt.icon.String())
		}
	}
}

func TestStatusText(t *testing.T) {
	out := StatusText("Saved", StatusOK)
	if !strings.Contains(out, "Saved") || !strings.Contains(out, icons.CheckOK.String()) {
		t.Errorf("expected icon and text, got %q", out)
	}
}

func TestToast(t *testing.T) {
	if got := Toast(notify.Notice{}); got != "" {
		t.Errorf("expected empty toast for an empty notice, got %q", got)
	}

	out := Toast(notify.ErrorNotice("Invalid credentials"))
	if !strings.Contains(out, "Invalid credentials") || !strings.Contains(out, icons.Critical.String()) {
		t.Errorf("expected error toast, got %q", out)
	}

	out = Toast(notify.SuccessNotice("Login successful"))
	if !strings.Contains(out, icons.CheckOK.String()) {
		t.Errorf("expected success icon, got %q", out)
	}
}

func TestLevelFor(t *testing.T) {
	if LevelFor(notify.Error) != StatusCritical {
		t.Error("expected errors to render as critical")
	}
	if LevelFor(notify.Success) != StatusOK {
		t.Error("expected success to render as ok")
	}
}

func TestChip(t *testing.T) {
	active := Chip("💼", "Work", "#3B82F6", true)
	inactive := Chip("💼", "Work", "#3B82F6", false)
	if !strings.Contains(active, "💼 Work") || !strings.Contains(inactive, "💼 Work") {
		t.Errorf("expected label in both chips: %q %q", active, inactive)
	}
	if lipgloss.Width(active) != lipgloss.Width(inactive) {
		t.Error("expected active and inactive chips to have the same width")
	}
}
