// ABOUTME: Tests for the status command
// ABOUTME: Verifies session reporting, token claims, and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
)

func decodeStatus(t *testing.T, buf *bytes.Buffer) statusReport {
	t.Helper()
	var r statusReport
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	return r
}

func TestStatusCommand_NotLoggedIn(t *testing.T) {
	f := newCLIFixture(t)

	var buf bytes.Buffer
	code := runStatus(context.Background(), &buf)

	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Not logged in") {
		t.Errorf("expected not-logged-in message, got %q", buf.String())
	}
	if len(f.srv.Requests()) != 0 {
		t.Error("expected no requests without a token")
	}
}

func TestStatusCommand_Valid(t *testing.T) {
	f := newCLIFixture(t)
	f.loginAs(t, "Ann", "ann@example.com", "123456")
	jsonOutput = true

	var buf bytes.Buffer
	code := runStatus(context.Background(), &buf)

	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	r := decodeStatus(t, &buf)
	if !r.LoggedIn || r.Session != sessionValid || r.User != "Ann" {
		t.Errorf("unexpected report %+v", r)
	}
	if r.Backend != f.srv.URL || r.TokenFile != f.store.Path() {
		t.Errorf("expected backend and token file, got %+v", r)
	}
}

func TestStatusCommand_Rejected(t *testing.T) {
	f := newCLIFixture(t)
	token := f.loginAs(t, "Ann", "ann@example.com", "123456")
	f.srv.Revoke(token)
	jsonOutput = true

	var buf bytes.Buffer
	code := runStatus(context.Background(), &buf)

	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	r := decodeStatus(t, &buf)
	if r.LoggedIn || r.Session != sessionRejected {
		t.Errorf("unexpected report %+v", r)
	}
	if f.storedToken(t) != "" {
		t.Error("expected rejected token to be removed")
	}
}

func TestStatusCommand_Offline(t *testing.T) {
	f := newCLIFixture(t)
	f.loginAs(t, "Ann", "ann@example.com", "123456")
	statusOffline = true
	jsonOutput = true

	var buf bytes.Buffer
	code := runStatus(context.Background(), &buf)

	if code != exitOK {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if r := decodeStatus(t, &buf); r.Session != sessionUnverified {
		t.Errorf("expected unverified session, got %+v", r)
	}
	if len(f.srv.Requests()) != 0 {
		t.Error("expected no requests with --offline")
	}
}

func TestStatusCommand_ConnectionError(t *testing.T) {
	f := newCLIFixture(t)
	f.loginAs(t, "Ann", "ann@example.com", "123456")
	apiURL = "http://127.0.0.1:1"
	jsonOutput = true

	var buf bytes.Buffer
	code := runStatus(context.Background(), &buf)

	if code != exitError {
		t.Errorf("expected exit code 2 for connection error, got %d", code)
	}
	r := decodeStatus(t, &buf)
	if !r.LoggedIn || r.Session != sessionUnknown || r.Error == "" {
		t.Errorf("unexpected report %+v", r)
	}
	if f.storedToken(t) == "" {
		t.Error("expected token to survive a connection error")
	}
}

func TestStatusCommand_JWTClaims(t *testing.T) {
	f := newCLIFixture(t)
	issued := time.Now().Add(-time.Hour).Truncate(time.Second)
	expires := issued.Add(48 * time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u42",
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if err := f.store.SetItem(context.Background(), tokenstore.TokenKey, token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	statusOffline = true
	jsonOutput = true

	var buf bytes.Buffer
	if code := runStatus(context.Background(), &buf); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	r := decodeStatus(t, &buf)
	if r.Subject != "u42" {
		t.Errorf("expected subject u42, got %q", r.Subject)
	}
	if r.IssuedAt == nil || !r.IssuedAt.Equal(issued) {
		t.Errorf("expected issued %v, got %v", issued, r.IssuedAt)
	}
	if r.ExpiresAt == nil || !r.ExpiresAt.Equal(expires) {
		t.Errorf("expected expiry %v, got %v", expires, r.ExpiresAt)
	}
}

func TestFormatStatusHuman(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour)
	r := statusReport{
		Backend:   "http://localhost:4000",
		TokenFile: "/tmp/session.json",
		LoggedIn:  true,
		Session:   sessionValid,
		User:      "Ann",
		Subject:   "u1",
		ExpiresAt: &exp,
	}

	out := formatStatusHuman(r)

	for _, want := range []string{"http://localhost:4000", "/tmp/session.json", "valid", "Ann", "u1", "[expiring]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Issued") {
		t.Error("expected no issued line without an iat claim")
	}
}

func TestExpiryStatus(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		exp  time.Time
		want string
	}{
		{now.Add(-time.Minute), "expired"},
		{now, "expired"},
		{now.Add(time.Hour), "expiring"},
		{now.Add(72 * time.Hour), "ok"},
	}
	for _, tt := range tests {
		if got := expiryStatus(tt.exp, now); got != tt.want {
			t.Errorf("expiryStatus(%v) = %q, want %q", tt.exp, got, tt.want)
		}
	}
}
