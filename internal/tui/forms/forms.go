// ABOUTME: Single-screen huh forms for auth, group creation, and confirmations
// ABOUTME: Each form runs inside the root bubbletea model and reports back with a message

package forms

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/tui/styles"
	"github.com/buggiebug/Secure-Vault/internal/validate"
	"github.com/buggiebug/Secure-Vault/internal/vault"
)

// Kind identifies which form produced a message
type Kind int

const (
	KindLogin Kind = iota
	KindSignup
	KindForgot
	KindAddGroup
	KindDeleteGroup
	KindConfirm
)

// Values holds everything a form can collect
type Values struct {
	Name      string
	Contact   string
	PIN       string
	GroupName string
	GroupIcon string
	GroupID   string
	Confirmed bool
}

// Email and Mobile split Contact into the field the backend expects.
func (v Values) Email() string {
	email, _ := SplitContact(v.Contact)
	return email
}

func (v Values) Mobile() string {
	_, mobile := SplitContact(v.Contact)
	return mobile
}

// SubmittedMsg is sent when a form completes
type SubmittedMsg struct {
	Kind   Kind
	Values Values
}

// CancelledMsg is sent when a form is abandoned or a confirmation declined
type CancelledMsg struct {
	Kind Kind
}

// Form wraps a huh form as a bubbletea model
type Form struct {
	kind Kind
	form *huh.Form
	v    *Values
}

// Login asks for an email or mobile number and the PIN.
func Login(contact string) *Form {
	f := &Form{kind: KindLogin, v: &Values{Contact: contact}}
	f.form = newForm(huh.NewGroup(
		contactInput(&f.v.Contact),
		pinInput(&f.v.PIN),
	).Title("Log in").Description("Use the email or mobile number you signed up with"))
	return f
}

// Signup asks for a name, an email or mobile number, and a new PIN.
func Signup() *Form {
	f := &Form{kind: KindSignup, v: &Values{}}
	f.form = newForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&f.v.Name).
			Validate(validate.NotBlank("Name")),
		contactInput(&f.v.Contact),
		pinInput(&f.v.PIN),
	).Title("Create an account").Description("Your PIN unlocks the vault and confirms deletions"))
	return f
}

// Forgot asks for the email a reset link is sent to.
func Forgot() *Form {
	f := &Form{kind: KindForgot, v: &Values{}}
	f.form = newForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&f.v.Contact).
			Validate(validate.Email),
	).Title("Forgot PIN").Description("We will email you a reset link"))
	return f
}

// AddGroup asks for a group name and an optional icon.
func AddGroup() *Form {
	f := &Form{kind: KindAddGroup, v: &Values{}}
	f.form = newForm(huh.NewGroup(
		huh.NewInput().
			Title("Group name").
			Placeholder("e.g., Work, Gaming, Personal").
			CharLimit(40).
			Value(&f.v.GroupName).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("Group name is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Icon").
			Description("Optional, a single emoji").
			Placeholder(vault.DefaultGroupIcon).
			CharLimit(4).
			Value(&f.v.GroupIcon),
	).Title("Create New Group").Description("Organize your passwords"))
	return f
}

// DeleteGroup shows the deletion warning for g and asks for the PIN.
func DeleteGroup(g client.Group) *Form {
	f := &Form{kind: KindDeleteGroup, v: &Values{GroupID: g.ID, GroupName: g.Name}}
	f.form = newForm(huh.NewGroup(
		huh.NewNote().
			Title("Delete Group").
			Description(vault.DeletePrompt(g)),
		huh.NewInput().
			Title("Enter your PIN to confirm").
			EchoMode(huh.EchoModePassword).
			CharLimit(6).
			Value(&f.v.PIN).
			Validate(func(s string) error {
				return firstMessage(validate.Struct(validate.PIN{PIN: s}))
			}),
	))
	return f
}

// Confirm asks a yes/no question; declining reports CancelledMsg.
func Confirm(title, description, affirmative string) *Form {
	f := &Form{kind: KindConfirm, v: &Values{}}
	f.form = newForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative(affirmative).
			Negative("Cancel").
			Value(&f.v.Confirmed),
	))
	return f
}

func newForm(group *huh.Group) *huh.Form {
	return huh.NewForm(group).
		WithTheme(styles.FormTheme()).
		WithShowHelp(false)
}

func contactInput(v *string) *huh.Input {
	return huh.NewInput().
		Title("Email or mobile").
		Placeholder("you@example.com or 10-digit number").
		Value(v).
		Validate(ValidateContact)
}

func pinInput(v *string) *huh.Input {
	return huh.NewInput().
		Title("PIN").
		Description("6 digits").
		EchoMode(huh.EchoModePassword).
		CharLimit(6).
		Value(v).
		Validate(validate.Pin)
}

// Kind returns which form this is
func (f *Form) Kind() Kind {
	return f.kind
}

// Values returns what has been entered so far
func (f *Form) Values() Values {
	return *f.v
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		kind := f.kind
		return f, func() tea.Msg { return CancelledMsg{Kind: kind} }
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		return f, f.finish()
	case huh.StateAborted:
		kind := f.kind
		return f, func() tea.Msg { return CancelledMsg{Kind: kind} }
	}
	return f, cmd
}

// finish reports the collected values; a declined confirmation is a cancel.
func (f *Form) finish() tea.Cmd {
	kind, values := f.kind, *f.v
	if kind == KindConfirm && !values.Confirmed {
		return func() tea.Msg { return CancelledMsg{Kind: kind} }
	}
	return func() tea.Msg { return SubmittedMsg{Kind: kind, Values: values} }
}

// View implements tea.Model
func (f *Form) View() string {
	return f.form.View()
}

// SplitContact decides whether s is a mobile number (all digits) or an email.
func SplitContact(s string) (email, mobile string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s, ""
		}
	}
	return "", s
}

// ValidateContact accepts a valid email or a 10-digit mobile number.
func ValidateContact(s string) error {
	email, mobile := SplitContact(s)
	switch {
	case mobile != "":
		return validate.Mobile(mobile)
	case email != "":
		return validate.Email(email)
	}
	return errors.New("Enter an email address or a mobile number")
}

func firstMessage(err error) error {
	if msgs := validate.Messages(err); len(msgs) > 0 {
		return errors.New(msgs[0])
	}
	return nil
}
