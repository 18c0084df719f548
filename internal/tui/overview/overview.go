// ABOUTME: Vault overview showing per-group counts and password hygiene warnings
// ABOUTME: Flags passwords shared between entries and passwords that are too short

package overview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
	"github.com/buggiebug/Secure-Vault/internal/tui/widgets"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// MinPasswordLength is the shortest password that is not flagged.
const MinPasswordLength = 8

// maxWarnings caps how many warnings are listed before summarising the rest.
const maxWarnings = 3

// Severity of a warning
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Warning is one hygiene finding
type Warning struct {
	Severity string
	Message  string
}

// Source is the read side of the vault the overview renders.
type Source interface {
	Snapshot() vault.State
	Counts(groupID string) vault.Counts
	GroupIcon(id string) string
}

// Overview displays vault totals and warnings
type Overview struct {
	src   Source
	width int
}

// New creates a new overview
func New(src Source, width int) *Overview {
	return &Overview{
		src:   src,
		width: width,
	}
}

// SetWidth updates the render width
func (o *Overview) SetWidth(width int) {
	o.width = width
}

// View renders the overview
func (o *Overview) View() string {
	st := o.src.Snapshot()

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Lock.String() + " Overview"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Passwords: %s\n", styles.ValueStyle.Render(fmt.Sprint(len(st.Passwords)))))

	var rows []string
	for _, g := range st.Groups {
		if g.ID == vault.AllGroupID {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s %s %d", o.src.GroupIcon(g.ID), g.Name, o.src.Counts(g.ID).Filtered))
	}

	// Groups in two columns
	colWidth := max((o.width-2)/2, 1)
	half := (len(rows) + 1) / 2
	for i := 0; i < half; i++ {
		left := rows[i]
		right := ""
		if i+half < len(rows) {
			right = rows[i+half]
		}
		sb.WriteString(lipgloss.NewStyle().Width(colWidth).Render(left))
		sb.WriteString("  ")
		sb.WriteString(right)
		sb.WriteString("\n")
	}

	warnings := Warnings(st.Passwords)
	if len(warnings) > 0 {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusWarning.Render("Warnings"))
		sb.WriteString("\n")
		for i, w := range warnings {
			if i == maxWarnings {
				sb.WriteString(fmt.Sprintf("  and %d more\n", len(warnings)-maxWarnings))
				break
			}
			level := widgets.StatusWarning
			if w.Severity == SeverityCritical {
				level = widgets.StatusCritical
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", widgets.StatusIcon(level), w.Message))
		}
	}

	return lipgloss.NewStyle().Width(o.width).Render(strings.TrimRight(sb.String(), "\n"))
}

// Warnings lists shared passwords first, then short ones. Entries with an
// empty password are ignored.
func Warnings(entries []client.PasswordEntry) []Warning {
	byPassword := map[string][]string{}
	var order []string
	for _, e := range entries {
		if e.Password == "" {
			continue
		}
		if _, seen := byPassword[e.Password]; !seen {
			order = append(order, e.Password)
		}
		byPassword[e.Password] = append(byPassword[e.Password], e.Title)
	}

	var out []Warning
	for _, pw := range order {
		titles := byPassword[pw]
		if len(titles) < 2 {
			continue
		}
		sort.Strings(titles)
		out = append(out, Warning{
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%d entries share a password: %s", len(titles), strings.Join(titles, ", ")),
		})
	}
	for _, e := range entries {
		if e.Password != "" && len([]rune(e.Password)) < MinPasswordLength {
			out = append(out, Warning{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%s: password shorter than %d characters", e.Title, MinPasswordLength),
			})
		}
	}
	return out
}
