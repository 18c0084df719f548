// ABOUTME: Input validation for forms and CLI flags before any request is sent
// ABOUTME: validator/v10 rules plus pin and mobile checks, rendered as one sentence per field

package validate

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	pinRe    = regexp.MustCompile(`^\d{6}$`)
	mobileRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// Credentials identify an account by email or mobile, never both.
type Credentials struct {
	Email    string `validate:"omitempty,email"`
	Mobile   string `validate:"omitempty,mobile"`
	Password string `validate:"pin"`
}

// Signup is Credentials plus a display name.
type Signup struct {
	Name string `validate:"notblank"`
	Credentials
}

// ForgotPassword needs a valid email.
type ForgotPassword struct {
	Email string `validate:"required,email"`
}

// Group is the add-group form.
type Group struct {
	Name string `validate:"notblank"`
}

// Entry is the add-password form.
type Entry struct {
	Title    string `validate:"notblank"`
	Password string `validate:"notblank"`
}

// PIN is the sensitive-action gate input.
type PIN struct {
	PIN string `validate:"min=6"`
}

// Error holds one message per failing field, in field order.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
			return pinRe.MatchString(fl.Field().String())
		})
		v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return mobileRe.MatchString(fl.Field().String())
		})
		v.RegisterStructValidation(credentialsLevel, Credentials{})
	})
	return v
}

func credentialsLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(Credentials)
	email, mobile := strings.TrimSpace(c.Email), strings.TrimSpace(c.Mobile)
	switch {
	case email == "" && mobile == "":
		sl.ReportError(c.Email, "Email", "Email", "contact", "")
	case email != "" && mobile != "":
		sl.ReportError(c.Mobile, "Mobile", "Mobile", "exclusive", "")
	}
}

// Struct validates s and returns *Error, or nil when s is valid.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{}
	seen := map[string]bool{}
	for _, fe := range verrs {
		msg := message(s, fe)
		if !seen[msg] {
			seen[msg] = true
			out.Messages = append(out.Messages, msg)
		}
	}
	return out
}

func message(s any, fe validator.FieldError) string {
	switch fe.Tag() {
	case "pin":
		return "PIN must be exactly 6 digits"
	case "mobile":
		return "Mobile number must be exactly 10 digits"
	case "email":
		return "Please enter a valid email address"
	case "contact":
		return "Enter an email address or a mobile number"
	case "exclusive":
		return "Use either an email address or a mobile number, not both"
	case "min":
		if fe.Field() == "PIN" {
			return "PIN must be at least 6 characters"
		}
	}

	if _, ok := s.(Entry); ok {
		return "Title and password are required"
	}
	if _, ok := s.(Group); ok {
		return "Group name is required"
	}
	return fe.Field() + " is required"
}

// Messages returns the per-field messages of err, or err's text as a single
// message when it is not a validation error.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return []string{err.Error()}
}

// Email, Mobile and Pin check single values for form field callbacks.
func Email(s string) error {
	if err := instance().Var(strings.TrimSpace(s), "required,email"); err != nil {
		return errors.New("Please enter a valid email address")
	}
	return nil
}

func Mobile(s string) error {
	if !mobileRe.MatchString(strings.TrimSpace(s)) {
		return errors.New("Mobile number must be exactly 10 digits")
	}
	return nil
}

func Pin(s string) error {
	if !pinRe.MatchString(s) {
		return errors.New("PIN must be exactly 6 digits")
	}
	return nil
}

// NotBlank returns an error naming field when s is empty after trimming.
func NotBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
