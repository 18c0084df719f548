// ABOUTME: Tests for the account commands
// ABOUTME: Runs signup, login, logout, forgot-password, and whoami against a fake backend

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/buggiebug/Secure-Vault/internal/client"
)

func TestLoginCommand_Success(t *testing.T) {
	f := newCLIFixture(t)
	f.srv.AddUser("Ann", "ann@example.com", "123456")
	authEmail, authPIN = "ann@example.com", "123456"

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf)

	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Login successful") {
		t.Errorf("expected success message, got %q", buf.String())
	}
	if f.storedToken(t) == "" {
		t.Error("expected token to be stored")
	}
	if f.srv.Count("GET /api/auth/user/me") != 1 {
		t.Error("expected the profile to be fetched after login")
	}
}

func TestLoginCommand_InvalidCredentials(t *testing.T) {
	f := newCLIFixture(t)
	f.srv.AddUser("Ann", "ann@example.com", "123456")
	authEmail, authPIN = "ann@example.com", "654321"

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf)

	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Invalid credentials") {
		t.Errorf("expected server message, got %q", buf.String())
	}
	if f.storedToken(t) != "" {
		t.Error("expected no token after a failed login")
	}
}

func TestLoginCommand_ValidatesBeforeSending(t *testing.T) {
	f := newCLIFixture(t)
	authMobile, authPIN = "98765", "123456"

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf)

	if code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "Mobile number must be exactly 10 digits") {
		t.Errorf("expected validation message, got %q", buf.String())
	}
	if f.srv.Count("POST /api/auth/login") != 0 {
		t.Error("expected no login request for invalid input")
	}
}

func TestLoginCommand_ConnectionError(t *testing.T) {
	newCLIFixture(t)
	apiURL = "http://127.0.0.1:1"
	authEmail, authPIN = "ann@example.com", "123456"

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf)

	if code != exitError {
		t.Errorf("expected exit code 2 for connection error, got %d", code)
	}
}

func TestSignupCommand_Success(t *testing.T) {
	f := newCLIFixture(t)
	authName, authEmail, authPIN = "Bob", "bob@example.com", "111111"
	jsonOutput = true

	var buf bytes.Buffer
	code := runSignup(context.Background(), &buf)

	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	var out struct {
		OK       bool     `json:"ok"`
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !out.OK || len(out.Messages) != 1 || out.Messages[0] != "Account created successfully" {
		t.Errorf("unexpected output %+v", out)
	}
	if f.storedToken(t) == "" {
		t.Error("expected signup token to be stored")
	}
}

func TestSignupCommand_Conflict(t *testing.T) {
	f := newCLIFixture(t)
	f.srv.AddUser("Bob", "bob@example.com", "111111")
	authName, authEmail, authPIN = "Bob", "bob@example.com", "222222"

	var buf bytes.Buffer
	code := runSignup(context.Background(), &buf)

	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "User already exists") {
		t.Errorf("expected conflict message, got %q", buf.String())
	}
}

func TestSignupCommand_RequiresName(t *testing.T) {
	f := newCLIFixture(t)
	authName, authEmail, authPIN = "  ", "bob@example.com", "111111"

	var buf bytes.Buffer
	if code := runSignup(context.Background(), &buf); code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if f.srv.Count("POST /api/auth/signup") != 0 {
		t.Error("expected no signup request without a name")
	}
}

func TestLogoutCommand(t *testing.T) {
	f := newCLIFixture(t)
	f.loginAs(t, "Ann", "ann@example.com", "123456")

	var buf bytes.Buffer
	code := runLogout(context.Background(), &buf)

	if code != exitOK {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if strings.TrimSpace(buf.String()) != "Logged out" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if f.storedToken(t) != "" {
		t.Error("expected token to be removed")
	}
}

func TestForgotPasswordCommand(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		wantCode int
		wantText string
	}{
		{"known account", "ann@example.com", exitOK, "Password reset link sent to your email"},
		{"unknown account", "nobody@example.com", exitFailed, "User not found"},
		{"invalid email", "not-an-email", exitError, "Please enter a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCLIFixture(t)
			f.srv.AddUser("Ann", "ann@example.com", "123456")
			authEmail = tt.email

			var buf bytes.Buffer
			code := runForgotPassword(context.Background(), &buf)

			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.Contains(buf.String(), tt.wantText) {
				t.Errorf("expected %q in output, got %q", tt.wantText, buf.String())
			}
		})
	}
}

func TestWhoamiCommand_NotLoggedIn(t *testing.T) {
	f := newCLIFixture(t)

	var buf bytes.Buffer
	code := runWhoami(context.Background(), &buf)

	if code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "not logged in") {
		t.Errorf("expected login hint, got %q", buf.String())
	}
	if len(f.srv.Requests()) != 0 {
		t.Error("expected no requests without a token")
	}
}

func TestWhoamiCommand_JSON(t *testing.T) {
	f := newCLIFixture(t)
	f.loginAs(t, "Ann", "ann@example.com", "123456")
	jsonOutput = true

	var buf bytes.Buffer
	code := runWhoami(context.Background(), &buf)

	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	var user map[string]any
	if err := json.Unmarshal(buf.Bytes(), &user); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if user["name"] != "Ann" || user["email"] != "ann@example.com" {
		t.Errorf("unexpected profile %v", user)
	}
}

func TestWhoamiCommand_RejectedTokenIsRemoved(t *testing.T) {
	f := newCLIFixture(t)
	token := f.loginAs(t, "Ann", "ann@example.com", "123456")
	f.srv.Revoke(token)

	var buf bytes.Buffer
	code := runWhoami(context.Background(), &buf)

	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if f.storedToken(t) != "" {
		t.Error("expected rejected token to be removed")
	}
}

func TestWhoamiCommand_ServerErrorKeepsToken(t *testing.T) {
	f := newCLIFixture(t)
	f.loginAs(t, "Ann", "ann@example.com", "123456")
	f.srv.Fail("GET /api/auth/user/me", http.StatusInternalServerError, "Database unavailable")

	var buf bytes.Buffer
	code := runWhoami(context.Background(), &buf)

	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Database unavailable") {
		t.Errorf("expected server message, got %q", buf.String())
	}
	if f.storedToken(t) == "" {
		t.Error("expected token to survive a server error")
	}
}

func TestFormatProfileHuman(t *testing.T) {
	out := formatProfileHuman(client.User{"name": "Ann", "email": "ann@example.com", "_id": "u1"})
	lines := strings.Split(out, "\n")

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "name:") || !strings.Contains(lines[0], "Ann") {
		t.Errorf("expected name first, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "_id:") || !strings.HasPrefix(lines[2], "email:") {
		t.Errorf("expected remaining keys sorted, got %q", out)
	}
}
