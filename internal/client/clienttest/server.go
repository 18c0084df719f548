// ABOUTME: In-process fake SecureVault backend for tests
// ABOUTME: chi router implementing every endpoint the client calls, with request recording and fault injection

package clienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/buggiebug/Secure-Vault/internal/client"
)

// Request is one recorded call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	LegacyToken   string
	RequestID     string
	Body          map[string]any
}

// Route returns "METHOD /path", the key used by Fail and Count.
func (r Request) Route() string {
	return r.Method + " " + r.Path
}

type failure struct {
	status  int
	message string
}

type account struct {
	id        string
	pin       string
	profile   client.User
	groups    []client.Group
	passwords []client.PasswordEntry
}

// Server is a fake backend. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // keyed by email or mobile
	tokens   map[string]*account
	requests []Request
	failures map[string]failure
	delays   map[string]time.Duration
	nextID   int

	// LoginWithoutToken makes login answer 200 with no token.
	LoginWithoutToken bool
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: map[string]*account{},
		tokens:   map[string]*account{},
		failures: map[string]failure{},
		delays:   map[string]time.Duration{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.signup)
			r.Post("/login", s.login)
			r.Post("/forgot-password", s.forgotPassword)
			r.Post("/userexist", s.userExist)

			r.Group(func(r chi.Router) {
				r.Use(s.requireToken)
				r.Post("/deleteUser", s.deleteUser)
				r.Get("/user/me", s.me)
				r.Patch("/user/me/update", s.updateMe)
				r.Post("/verify-password", s.verifyPassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/app/notification/store-token", s.storeToken)

			r.Route("/pm", func(r chi.Router) {
				r.Get("/groups", s.listGroups)
				r.Post("/groups", s.createGroup)
				r.Delete("/groups/{id}", s.deleteGroup)
				r.Get("/passwords", s.listPasswords)
				r.Post("/passwords", s.createPassword)
				r.Delete("/passwords/{id}", s.deletePassword)
			})
		})
	})
	return r
}

// AddUser registers an account and returns a valid session token for it.
func (s *Server) AddUser(name, email, pin string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.newAccountLocked(name, email, "", pin)
	return s.issueLocked(a)
}

// AddGroup seeds a server-side group for the account owning token.
func (s *Server) AddGroup(token string, g client.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.tokens[token]; a != nil {
		a.groups = append(a.groups, g)
	}
}

// AddPassword seeds a server-side entry for the account owning token.
func (s *Server) AddPassword(token string, p client.PasswordEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.tokens[token]; a != nil {
		a.passwords = append(a.passwords, p)
	}
}

// Revoke invalidates token so protected routes answer 401.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Fail makes route ("METHOD /path") answer status with message until cleared.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Clear removes an injected failure.
func (s *Server) Clear(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Delay holds responses for route by d.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit route.
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Route() == route {
			n++
		}
	}
	return n
}

// Last returns the most recent request for route.
func (s *Server) Last(route string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Route() == route {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// Groups returns the server-side groups of the account owning token.
func (s *Server) Groups(token string) []client.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.tokens[token]; a != nil {
		return append([]client.Group(nil), a.groups...)
	}
	return nil
}

// Passwords returns the server-side entries of the account owning token.
func (s *Server) Passwords(token string) []client.PasswordEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.tokens[token]; a != nil {
		return append([]client.PasswordEntry(nil), a.passwords...)
	}
	return nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			LegacyToken:   r.Header.Get(client.LegacyTokenHeader),
			RequestID:     r.Header.Get(client.RequestIDHeader),
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				req.Body = body
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		fail, failing := s.failures[req.Route()]
		delay := s.delays[req.Route()]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, fail.status, map[string]any{"message": fail.message})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, req.Body)))
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.Header.Get(client.LegacyTokenHeader)
		}
		s.mu.Lock()
		a := s.tokens[token]
		s.mu.Unlock()
		if a == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey{}, a)))
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	email, mobile := str(body, "email"), str(body, "mobile")
	key := email
	if key == "" {
		key = mobile
	}
	if key == "" || str(body, "password") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Missing required fields"})
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[key]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{"message": "User already exists"})
		return
	}
	a := s.newAccountLocked(str(body, "name"), email, mobile, str(body, "password"))
	token := s.issueLocked(a)
	profile := a.profile.Clone()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"data":    map[string]any{"token": token, "user": profile},
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	key := str(body, "email")
	if key == "" {
		key = str(body, "mobile")
	}

	s.mu.Lock()
	a := s.accounts[key]
	if a == nil || a.pin != str(body, "password") {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
		return
	}
	if s.LoginWithoutToken {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "data": map[string]any{}})
		return
	}
	token := s.issueLocked(a)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"data":    map[string]any{"userToken": token},
	})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	email := str(bodyOf(r), "email")
	s.mu.Lock()
	_, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset link sent to your email"})
}

func (s *Server) userExist(w http.ResponseWriter, r *http.Request) {
	email := str(bodyOf(r), "email")
	s.mu.Lock()
	_, ok := s.accounts[email]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": map[string]any{"exists": ok}})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	s.mu.Lock()
	for k, v := range s.accounts {
		if v == a {
			delete(s.accounts, k)
		}
	}
	for tok, v := range s.tokens {
		if v == a {
			delete(s.tokens, tok)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	s.mu.Lock()
	profile := a.profile.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": profile})
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	s.mu.Lock()
	for k, v := range bodyOf(r) {
		if k == "_id" {
			continue
		}
		a.profile[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully"})
}

func (s *Server) verifyPassword(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	s.mu.Lock()
	ok := a.pin == str(bodyOf(r), "password")
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Incorrect password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password verified"})
}

func (s *Server) storeToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "Token stored"})
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	s.mu.Lock()
	groups := append([]client.Group{}, a.groups...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": groups})
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	body := bodyOf(r)
	if strings.TrimSpace(str(body, "name")) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Group name is required"})
		return
	}
	s.mu.Lock()
	s.nextID++
	g := client.Group{
		ID:    fmt.Sprintf("g%d", s.nextID),
		Name:  str(body, "name"),
		Icon:  str(body, "icon"),
		Color: str(body, "color"),
	}
	a.groups = append(a.groups, g)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Group created", "data": g})
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	kept := a.groups[:0]
	for _, g := range a.groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	a.groups = kept
	entries := a.passwords[:0]
	for _, p := range a.passwords {
		if p.Group != id {
			entries = append(entries, p)
		}
	}
	a.passwords = entries
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Group deleted"})
}

func (s *Server) listPasswords(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	s.mu.Lock()
	entries := append([]client.PasswordEntry{}, a.passwords...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": entries})
}

func (s *Server) createPassword(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	body := bodyOf(r)
	if str(body, "title") == "" || str(body, "password") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Title and password are required"})
		return
	}
	s.mu.Lock()
	s.nextID++
	p := client.PasswordEntry{
		ID:        fmt.Sprintf("p%d", s.nextID),
		Title:     str(body, "title"),
		Username:  str(body, "username"),
		Password:  str(body, "password"),
		Website:   str(body, "website"),
		Notes:     str(body, "notes"),
		Group:     str(body, "group"),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	a.passwords = append(a.passwords, p)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Password saved", "data": p})
}

func (s *Server) deletePassword(w http.ResponseWriter, r *http.Request) {
	a, _ := accountOf(r)
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	found := false
	kept := a.passwords[:0]
	for _, p := range a.passwords {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	a.passwords = kept
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Password not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password deleted"})
}

func (s *Server) newAccountLocked(name, email, mobile, pin string) *account {
	s.nextID++
	id := fmt.Sprintf("u%d", s.nextID)
	profile := client.User{"_id": id, "name": name}
	if email != "" {
		profile["email"] = email
	}
	if mobile != "" {
		profile["mobile"] = mobile
	}
	a := &account{id: id, pin: pin, profile: profile}
	if email != "" {
		s.accounts[email] = a
	}
	if mobile != "" {
		s.accounts[mobile] = a
	}
	return a
}

func (s *Server) issueLocked(a *account) string {
	s.nextID++
	token := fmt.Sprintf("tok-%s-%d", a.id, s.nextID)
	s.tokens[token] = a
	return token
}

type (
	bodyKey    struct{}
	accountKey struct{}
)

func bodyOf(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	return body
}

func accountOf(r *http.Request) (*account, bool) {
	a, ok := r.Context().Value(accountKey{}).(*account)
	return a, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func str(m map[string]any, k string) string {
	s, _ := m[k].(string)
	return s
}
