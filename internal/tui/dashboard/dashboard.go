// ABOUTME: Vault dashboard showing group chips, header counts, and the entry list
// ABOUTME: Reads live from the vault state machine; navigation and search stay local to the view

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
	"github.com/buggiebug/Secure-Vault/internal/tui/widgets"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// Source is the read side of the vault the dashboard renders.
type Source interface {
	Snapshot() vault.State
	Search(query, groupID string) []client.PasswordEntry
	Counts(groupID string) vault.Counts
	GroupName(id string) string
	GroupColor(id string) string
	GroupIcon(id string) string
}

// Dashboard displays the vault contents
type Dashboard struct {
	src      Source
	group    string
	cursor   int
	revealed string
	search   textinput.Model
	width    int
	height   int
}

// New creates a dashboard showing every entry
func New(src Source, width, height int) *Dashboard {
	ti := textinput.New()
	ti.Placeholder = "Search title, username, website, notes"
	ti.Prompt = icons.Search.String() + " "
	ti.CharLimit = 64
	return &Dashboard{
		src:    src,
		group:  vault.AllGroupID,
		search: ti,
		width:  width,
		height: height,
	}
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Group returns the selected group id.
func (d *Dashboard) Group() string {
	return d.group
}

// Searching reports whether the search box has focus.
func (d *Dashboard) Searching() bool {
	return d.search.Focused()
}

// Query returns the current search text.
func (d *Dashboard) Query() string {
	return d.search.Value()
}

// Entries returns the entries currently listed.
func (d *Dashboard) Entries() []client.PasswordEntry {
	return d.src.Search(d.search.Value(), d.group)
}

// Selected returns the entry under the cursor.
func (d *Dashboard) Selected() (client.PasswordEntry, bool) {
	entries := d.Entries()
	if len(entries) == 0 {
		return client.PasswordEntry{}, false
	}
	return entries[d.clampCursor(len(entries))], true
}

// Update handles navigation and search keys. It reports whether msg was
// consumed so the caller can handle the rest.
func (d *Dashboard) Update(msg tea.Msg) (bool, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if d.search.Focused() {
			var cmd tea.Cmd
			d.search, cmd = d.search.Update(msg)
			return true, cmd
		}
		return false, nil
	}

	if d.search.Focused() {
		switch key.String() {
		case "esc":
			d.search.SetValue("")
			d.search.Blur()
			d.cursor = 0
			return true, nil
		case "enter":
			d.search.Blur()
			return true, nil
		}
		var cmd tea.Cmd
		d.search, cmd = d.search.Update(msg)
		d.cursor = 0
		return true, cmd
	}

	switch key.String() {
	case "/":
		return true, d.search.Focus()
	case "right", "l", "tab":
		d.shiftGroup(1)
	case "left", "h", "shift+tab":
		d.shiftGroup(-1)
	case "down", "j":
		d.cursor++
		d.cursor = d.clampCursor(len(d.Entries()))
	case "up", "k":
		d.cursor--
		d.cursor = d.clampCursor(len(d.Entries()))
	case "enter", " ":
		if e, ok := d.Selected(); ok {
			if d.revealed == e.ID {
				d.revealed = ""
			} else {
				d.revealed = e.ID
			}
		}
	default:
		return false, nil
	}
	return true, nil
}

// SelectGroup jumps to group id, falling back to "all" when it is gone.
func (d *Dashboard) SelectGroup(id string) {
	d.group = vault.AllGroupID
	for _, g := range d.src.Snapshot().Groups {
		if g.ID == id {
			d.group = id
			break
		}
	}
	d.cursor = 0
	d.revealed = ""
}

func (d *Dashboard) shiftGroup(delta int) {
	groups := d.src.Snapshot().Groups
	if len(groups) == 0 {
		return
	}
	idx := 0
	for i, g := range groups {
		if g.ID == d.group {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(groups)) % len(groups)
	d.SelectGroup(groups[idx].ID)
}

func (d *Dashboard) clampCursor(n int) int {
	if n == 0 || d.cursor < 0 {
		return 0
	}
	if d.cursor >= n {
		return n - 1
	}
	return d.cursor
}

// View renders the dashboard
func (d *Dashboard) View() string {
	var sb strings.Builder

	// Header counts
	c := d.src.Counts(d.group)
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s %s", d.src.GroupIcon(d.group), c.GroupName)))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d of %d passwords", c.Filtered, c.Total)))
	sb.WriteString("\n")

	// Group chips
	var chips []string
	for _, g := range d.src.Snapshot().Groups {
		chips = append(chips, widgets.Chip(g.Icon, g.Name, d.src.GroupColor(g.ID), g.ID == d.group))
	}
	sb.WriteString(lipgloss.NewStyle().Width(d.width).Render(strings.Join(chips, " ")))
	sb.WriteString("\n\n")

	if d.search.Focused() || d.search.Value() != "" {
		sb.WriteString(d.search.View())
		sb.WriteString("\n\n")
	}

	entries := d.Entries()
	if len(entries) == 0 {
		msg := "No passwords yet. Press a to add one."
		if d.search.Value() != "" {
			msg = "No passwords match your search."
		}
		sb.WriteString(styles.Subtitle.Render(msg))
	}

	cursor := d.clampCursor(len(entries))
	for i, e := range entries {
		sb.WriteString(d.renderEntry(e, i == cursor))
		sb.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(d.width).
		MaxHeight(max(d.height, 1)).
		Render(sb.String())
}

func (d *Dashboard) renderEntry(e client.PasswordEntry, selected bool) string {
	groupTag := lipgloss.NewStyle().Foreground(lipgloss.Color(d.src.GroupColor(e.Group))).
		Render(d.src.GroupIcon(e.Group) + " " + d.src.GroupName(e.Group))

	secret := styles.Masked.Render(styles.Mask(e.Password))
	if d.revealed == e.ID {
		secret = styles.ValueStyle.Render(e.Password)
	}

	line := fmt.Sprintf("%s %s  %s", icons.Key.String(), e.Title, groupTag)
	if selected {
		line = styles.Selected.Render(fmt.Sprintf("%s %s", icons.Key.String(), e.Title)) + "  " + groupTag
	}

	var sb strings.Builder
	sb.WriteString(line)
	if selected || d.revealed == e.ID {
		if e.Username != "" {
			sb.WriteString(fmt.Sprintf("\n    %s %s", icons.User.String(), e.Username))
		}
		secretIcon := icons.Lock
		if d.revealed == e.ID {
			secretIcon = icons.Reveal
		}
		sb.WriteString(fmt.Sprintf("\n    %s %s", secretIcon.String(), secret))
		if e.Website != "" {
			sb.WriteString(fmt.Sprintf("\n    %s %s", icons.Globe.String(), e.Website))
		}
		if e.Notes != "" {
			sb.WriteString(fmt.Sprintf("\n    %s %s", icons.Note.String(), e.Notes))
		}
	}
	return sb.String()
}
