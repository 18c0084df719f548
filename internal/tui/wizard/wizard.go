// ABOUTME: Add-password wizard as a bubbletea model
// ABOUTME: Uses huh forms with visual progress indicator for step navigation

package wizard

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// WizardCompleteMsg is sent when the wizard finishes successfully
type WizardCompleteMsg struct {
	Entry client.NewEntry
}

// WizardCancelledMsg is sent when the wizard is cancelled
type WizardCancelledMsg struct{}

// Wizard manages the add-password flow as a bubbletea model
type Wizard struct {
	groups []client.Group
	entry  client.NewEntry
	form   *huh.Form
	step   int
	width  int
}

// Step names for progress indicator
var stepNames = []string{"Details", "Credentials", "Group & Notes"}

// New creates a wizard filing the entry under group by default. An empty
// group or "all" means the individual group.
func New(groups []client.Group, group string) *Wizard {
	if group == "" || group == vault.AllGroupID {
		group = vault.IndividualGroupID
	}
	w := &Wizard{
		groups: groups,
		entry:  client.NewEntry{Group: group},
		step:   1,
	}
	w.form = w.createStep1Form()
	return w
}

func (w *Wizard) createStep1Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("What is this password for?").
				Placeholder("e.g., Gmail").
				CharLimit(80).
				Value(&w.entry.Title).
				Validate(required("Title")),
			huh.NewInput().
				Title("Website").
				Description("Optional").
				Placeholder("https://").
				Value(&w.entry.Website),
		).Title("Step 1: Details").
			Description("Name the entry so you can find it later"),
	).WithTheme(styles.FormTheme())
}

func (w *Wizard) createStep2Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("Optional").
				Value(&w.entry.Username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&w.entry.Password).
				Validate(required("Password")),
		).Title("Step 2: Credentials").
			Description("The password is stored as entered"),
	).WithTheme(styles.FormTheme())
}

func (w *Wizard) createStep3Form() *huh.Form {
	var options []huh.Option[string]
	for _, g := range w.groups {
		if g.ID == vault.AllGroupID {
			continue
		}
		options = append(options, huh.NewOption(fmt.Sprintf("%s %s", g.Icon, g.Name), g.ID))
	}
	if len(options) == 0 {
		options = append(options, huh.NewOption("Individual", vault.IndividualGroupID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Group").
				Description("Use ↑/↓ to select, Enter to confirm").
				Options(options...).
				Value(&w.entry.Group),
			huh.NewText().
				Title("Notes").
				Description("Optional").
				CharLimit(500).
				Value(&w.entry.Notes),
		).Title("Step 3: Group & Notes").
			Description("Choose where the password is filed"),
	).WithTheme(styles.FormTheme())
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		form, cmd := w.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			w.form = f
		}
		return w, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return w, func() tea.Msg { return WizardCancelledMsg{} }
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		return w.advanceStep()
	}

	return w, cmd
}

func (w *Wizard) advanceStep() (tea.Model, tea.Cmd) {
	switch w.step {
	case 1:
		w.step = 2
		w.form = w.createStep2Form()
		return w, w.form.Init()

	case 2:
		w.step = 3
		w.form = w.createStep3Form()
		return w, w.form.Init()

	case 3:
		entry := w.Entry()
		return w, func() tea.Msg {
			return WizardCompleteMsg{Entry: entry}
		}
	}

	return w, nil
}

// Step returns the current step, starting at 1
func (w *Wizard) Step() int {
	return w.step
}

// Entry returns the collected entry with surrounding whitespace trimmed
func (w *Wizard) Entry() client.NewEntry {
	e := w.entry
	e.Title = strings.TrimSpace(e.Title)
	e.Website = strings.TrimSpace(e.Website)
	e.Username = strings.TrimSpace(e.Username)
	e.Notes = strings.TrimSpace(e.Notes)
	return e
}

// SetWidth sets the wizard width for proper rendering
func (w *Wizard) SetWidth(width int) {
	w.width = width
}

// View implements tea.Model
func (w *Wizard) View() string {
	var sb strings.Builder

	sb.WriteString(w.renderProgress())
	sb.WriteString("\n\n")
	sb.WriteString(w.form.View())

	return sb.String()
}

// renderProgress renders the step progress indicator
func (w *Wizard) renderProgress() string {
	width := w.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		switch {
		case stepNum < w.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		case stepNum == w.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}

	stepsLine := strings.Join(steps, "    ")

	// Progress bar line format: "│  " + bar + " │" = 5 chars overhead
	barWidth := width - 5
	filledWidth := (w.step * barWidth) / len(stepNames)
	emptyWidth := barWidth - filledWidth

	filledBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	emptyBar := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", emptyWidth))

	styledTitle := titleStyle.Render("New Password")
	titleWidth := lipgloss.Width("New Password")

	topFillWidth := max(0, width-5-titleWidth)
	topBorder := "┌─ " + styledTitle + " " + strings.Repeat("─", topFillWidth) + "┐"

	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"

	progressLinePadded := "│  " + filledBar + emptyBar + " │"

	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
