// ABOUTME: Tests for the SecureVault API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buggiebug/Secure-Vault/internal/logger"
	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
)

func newTestClient(url string, store tokenstore.Store, opts ...Option) *Client {
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	return New(url, store, opts...)
}

func TestRequest_AttachesBothTokenHeaders(t *testing.T) {
	var gotAuth, gotLegacy, gotCT, gotReqID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotLegacy = r.Header.Get("usertoken")
		gotCT = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get(RequestIDHeader)
		json.NewEncoder(w).Encode(map[string]any{"data": []Group{}})
	}))
	defer server.Close()

	c := newTestClient(server.URL, tokenstore.NewMemoryStore("T1"))
	if _, err := c.Groups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer T1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotLegacy != "T1" {
		t.Errorf("expected usertoken header, got %q", gotLegacy)
	}
	if gotCT != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotCT)
	}
	if gotReqID == "" {
		t.Error("expected a request id header")
	}
}

func TestRequest_LegacyHeaderDisabled(t *testing.T) {
	var gotAuth, gotLegacy string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotLegacy = r.Header.Get("usertoken")
		json.NewEncoder(w).Encode(map[string]any{"data": []Group{}})
	}))
	defer server.Close()

	c := newTestClient(server.URL, tokenstore.NewMemoryStore("T1"), WithLegacyTokenHeader(false))
	if _, err := c.Groups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer T1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotLegacy != "" {
		t.Errorf("expected no usertoken header, got %q", gotLegacy)
	}
}

func TestRequest_NoTokenGoesUnauthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"message": "sent"})
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore("")
	store.FailGet = errors.New("keychain locked")
	c := newTestClient(server.URL, store)
	if _, err := c.ForgotPassword(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no auth header, got %q", gotAuth)
	}
}

func TestLogin_TokenFromEitherField(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"token", map[string]any{"token": "T1"}, "T1"},
		{"userToken", map[string]any{"userToken": "T2"}, "T2"},
		{"userToken wins", map[string]any{"token": "T1", "userToken": "T2"}, "T2"},
		{"missing", map[string]any{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auth/login" {
					t.Errorf("expected path /api/auth/login, got %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{"message": "Welcome", "data": tt.data})
			}))
			defer server.Close()

			res, err := newTestClient(server.URL, nil).Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "123456"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Token != tt.want {
				t.Errorf("expected token %q, got %q", tt.want, res.Token)
			}
			if res.Message != "Welcome" {
				t.Errorf("expected message Welcome, got %q", res.Message)
			}
		})
	}
}

func TestSignup_UserFromDataOrTopLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Created",
			"data":    map[string]any{"token": "T1"},
			"user":    map[string]any{"name": "A"},
		})
	}))
	defer server.Close()

	res, err := newTestClient(server.URL, nil).Signup(context.Background(), SignupRequest{Name: "A", Email: "a@b.com", Password: "123456"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.User.Name() != "A" {
		t.Errorf("expected user A, got %v", res.User)
	}
}

func TestMe_ProfileShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `{"name":"A"}`},
		{"data", `{"message":"ok","data":{"name":"A"}}`},
		{"user", `{"user":{"name":"A"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			u, err := newTestClient(server.URL, nil).Me(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Name() != "A" {
				t.Errorf("expected name A, got %v", u)
			}
			if _, ok := u["message"]; ok {
				t.Error("envelope message leaked into profile")
			}
		})
	}
}

func TestMe_NullDataIsEmptyProfile(t *testing.T) {
	for _, body := range []string{`{"message":"ok","data":null}`, `{"user":null}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		u, err := newTestClient(server.URL, nil).Me(context.Background())
		server.Close()
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", body, err)
		}
		if len(u) != 0 {
			t.Errorf("expected empty profile for %s, got %v", body, u)
		}
	}
}

func TestTransportError_Message(t *testing.T) {
	err := &TransportError{URL: "http://backend.test", Err: errors.New("connection refused")}
	if got := err.Error(); got != "cannot connect to backend at http://backend.test: connection refused" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Error("expected the cause to unwrap")
	}
}

func TestAPIError_MessagePreference(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", 400, `{"message":"Invalid credentials"}`, "Invalid credentials"},
		{"error field", 500, `{"error":"db down"}`, "db down"},
		{"no body", 502, ``, "request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, nil).Groups(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if Message(err) != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, Message(err))
			}
		})
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(&APIError{StatusCode: 401}) {
		t.Error("401 should be unauthorized")
	}
	if !IsUnauthorized(&APIError{StatusCode: 403}) {
		t.Error("403 should be unauthorized")
	}
	if IsUnauthorized(&APIError{StatusCode: 500}) {
		t.Error("500 should not be unauthorized")
	}
	if IsUnauthorized(ErrTimedOut) {
		t.Error("timeout should not be unauthorized")
	}
}

func TestRequest_ConnectionError(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", nil)
	_, err := c.Groups(context.Background())
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if !strings.Contains(Message(err), "cannot connect to backend at http://127.0.0.1:1") {
		t.Errorf("unexpected message %q", Message(err))
	}
}

func TestRequest_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL, nil).Groups(ctx)
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
}

func TestRequest_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL, nil).Groups(ctx)
	if !errors.Is(err, ErrTimedOut) {
		t.Errorf("expected ErrTimedOut, got %v", err)
	}
	if Message(err) != "request timed out" {
		t.Errorf("unexpected message %q", Message(err))
	}
}

func TestRequest_ClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, nil, WithTimeout(10*time.Millisecond)).Groups(context.Background())
	if !errors.Is(err, ErrTimedOut) {
		t.Errorf("expected ErrTimedOut, got %v", err)
	}
}

func TestGroups_AcceptsIDOrUnderscoreID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"_id":"g1","name":"Work"},{"id":"g2","name":"Home"}]}`))
	}))
	defer server.Close()

	groups, err := newTestClient(server.URL, nil).Groups(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 || groups[0].ID != "g1" || groups[1].ID != "g2" {
		t.Errorf("unexpected groups %+v", groups)
	}
}

func TestCreatePassword_SendsGroupAndReturnsEntry(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/pm/passwords" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"message":"saved","data":{"_id":"p1","title":"Mail","password":"x","groupId":"mail"}}`))
	}))
	defer server.Close()

	entry, err := newTestClient(server.URL, nil).CreatePassword(context.Background(), NewEntry{Title: "Mail", Password: "x", Group: "mail"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["group"] != "mail" || body["groupId"] != "mail" {
		t.Errorf("expected group under both keys, got %v", body)
	}
	if entry == nil || entry.ID != "p1" || entry.Group != "mail" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestDeleteGroup_EscapesID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"message":"Group deleted"}`))
	}))
	defer server.Close()

	msg, err := newTestClient(server.URL, nil).DeleteGroup(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/pm/groups/a%2Fb" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if msg != "Group deleted" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestUserExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["email"] == "known@b.com" {
			w.Write([]byte(`{"data":{"exists":true}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"User not found"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	ok, err := c.UserExists(context.Background(), "known@b.com")
	if err != nil || !ok {
		t.Errorf("expected known user to exist, got %v, %v", ok, err)
	}
	ok, err = c.UserExists(context.Background(), "nobody@b.com")
	if err != nil || ok {
		t.Errorf("expected unknown user to be absent, got %v, %v", ok, err)
	}
}
