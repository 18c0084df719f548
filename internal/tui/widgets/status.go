// ABOUTME: Status, chip, and toast widgets for quick visual status indication
// ABOUTME: Group chips take their color from the group; toasts render notifications

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/tui/icons"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
)

func levelColor(level StatusLevel) lipgloss.Color {
	switch level {
	case StatusOK:
		return styles.Secondary
	case StatusWarning:
		return styles.Warning
	case StatusCritical:
		return styles.Danger
	default:
		return styles.Info
	}
}

// StatusIcon returns the icon for a status level in the level's color
func StatusIcon(level StatusLevel) string {
	icon := icons.Info
	switch level {
	case StatusOK:
		icon = icons.CheckOK
	case StatusWarning:
		icon = icons.Warning
	case StatusCritical:
		icon = icons.Critical
	}
	return lipgloss.NewStyle().Foreground(levelColor(level)).Render(icon.String())
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	textStyle := lipgloss.NewStyle().Foreground(levelColor(level))
	return fmt.Sprintf("%s %s", StatusIcon(level), textStyle.Render(text))
}

// Chip renders a group selector. The active chip is filled with the group's
// color; inactive chips only use it for the text.
func Chip(icon, label, color string, active bool) string {
	c := lipgloss.Color(color)
	style := lipgloss.NewStyle().Padding(0, 1)
	if active {
		style = style.Background(c).Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	} else {
		style = style.Foreground(c)
	}
	return style.Render(icon + " " + label)
}

// LevelFor maps a notification level to a status level.
func LevelFor(l notify.Level) StatusLevel {
	if l == notify.Error {
		return StatusCritical
	}
	return StatusOK
}

// Toast renders a notification as a single status line.
func Toast(n notify.Notice) string {
	if n.Message == "" {
		return ""
	}
	return StatusText(n.Message, LevelFor(n.Level))
}
