// ABOUTME: Auth state machine owning the session lifecycle
// ABOUTME: Initialize, signup, login, logout, profile and account operations over the API client

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/opstate"
	"github.com/buggiebug/Secure-Vault/internal/tokenstore"
)

// Operation names recorded in LoadingState.
const (
	OpInitialize     = "initialize"
	OpSignup         = "signup"
	OpLogin          = "login"
	OpLogout         = "logout"
	OpForgotPassword = "forgotPassword"
	OpGetUser        = "getUser"
	OpUpdateProfile  = "updateUserProfile"
	OpDeleteUser     = "deleteUser"
	OpCheckUser      = "checkUserExist"
	OpPushToken      = "pushNotification"
)

// DefaultProfileTimeout bounds profile fetches when Options leaves it unset.
const DefaultProfileTimeout = 8 * time.Second

// AccountDeletedMessage is shown after a successful account deletion.
const AccountDeletedMessage = "Account deleted successfully"

// errEmptyProfile is returned when the backend answers the profile call with
// an empty document, which cannot back a logged-in session.
var errEmptyProfile = errors.New("invalid response from backend: empty profile")

// API is the subset of the HTTP client the auth machine uses.
type API interface {
	Signup(ctx context.Context, req client.SignupRequest) (*client.AuthResult, error)
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	DeleteUser(ctx context.Context) (string, error)
	Me(ctx context.Context) (client.User, error)
	UpdateMe(ctx context.Context, fields map[string]any) (string, error)
	UserExists(ctx context.Context, email string) (bool, error)
	StoreNotificationToken(ctx context.Context, token string) error
}

// Session is the authenticated identity. User is an empty map when logged out.
type Session struct {
	IsLoggedIn bool
	User       client.User
}

// State is a read-only snapshot of the machine.
type State struct {
	Session      Session
	Loading      opstate.LoadingState
	Initializing bool
	Ops          []opstate.Op
}

// InitResult reports whether Initialize found a usable stored token.
type InitResult struct {
	HasToken bool
}

// Machine is the auth state machine as seen by the presentation layer.
type Machine interface {
	Initialize(ctx context.Context) (InitResult, error)
	Signup(ctx context.Context, req client.SignupRequest) error
	Login(ctx context.Context, req client.LoginRequest) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	GetUser(ctx context.Context) (client.User, error)
	UpdateProfile(ctx context.Context, fields map[string]any) error
	DeleteAccount(ctx context.Context) error
	CheckUserExists(ctx context.Context, email string) (bool, error)
	RegisterPushToken(ctx context.Context, token string) error
	ClearError()
	Reset()
	Snapshot() State
}

// Options configures a Service.
type Options struct {
	Notifier       notify.Notifier
	Logger         *slog.Logger
	ProfileTimeout time.Duration
}

// Service implements Machine.
type Service struct {
	api            API
	store          tokenstore.Store
	notifier       notify.Notifier
	logger         *slog.Logger
	profileTimeout time.Duration

	ops   *opstate.Tracker
	group singleflight.Group

	mu           sync.RWMutex
	session      Session
	initializing bool
}

var _ Machine = (*Service)(nil)

// New returns a logged-out machine in the idle state.
func New(api API, store tokenstore.Store, opts Options) *Service {
	s := &Service{
		api:            api,
		store:          store,
		notifier:       opts.Notifier,
		logger:         opts.Logger,
		profileTimeout: opts.ProfileTimeout,
		ops:            opstate.New(),
		session:        Session{User: client.User{}},
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.profileTimeout <= 0 {
		s.profileTimeout = DefaultProfileTimeout
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	st := State{
		Session:      Session{IsLoggedIn: s.session.IsLoggedIn, User: s.session.User.Clone()},
		Initializing: s.initializing,
	}
	s.mu.RUnlock()
	st.Loading = s.ops.State()
	st.Ops = s.ops.InFlight()
	return st
}

// LastResult returns the settled result of the latest instance of op.
func (s *Service) LastResult(op string) (opstate.Result, bool) {
	return s.ops.Last(op)
}

// ClearError drops the error message from the loading state.
func (s *Service) ClearError() {
	s.ops.ClearError()
}

// Reset logs the session out locally and returns loading state to idle. The
// stored token is left alone.
func (s *Service) Reset() {
	s.setSession(false, nil)
	s.ops.Reset()
}

// Initialize restores a session from the stored token. It never returns an
// error: a missing, rejected, or unreadable token all end logged out.
// Concurrent calls share one run.
func (s *Service) Initialize(ctx context.Context) (InitResult, error) {
	v, _, _ := s.group.Do(OpInitialize, func() (any, error) {
		return s.initialize(ctx), nil
	})
	return v.(InitResult), nil
}

func (s *Service) initialize(ctx context.Context) InitResult {
	h := s.ops.Begin(OpInitialize)
	s.setInitializing(true)
	defer s.setInitializing(false)

	token, err := s.store.GetItem(ctx, tokenstore.TokenKey)
	if err != nil {
		// The store itself is unusable; surface that so the UI can offer a retry.
		s.logger.Warn("reading session token failed", "error", err)
		s.setSession(false, nil)
		h.Fail(err.Error())
		return InitResult{}
	}
	if token == "" {
		s.setSession(false, nil)
		h.Succeed()
		return InitResult{}
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.logger.Info("stored session rejected", "error", client.Message(err), "status", client.StatusCode(err))
		s.removeToken(ctx)
		s.setSession(false, nil)
		h.Succeed()
		return InitResult{}
	}

	s.setSession(true, user)
	h.Succeed()
	return InitResult{HasToken: true}
}

// Signup creates an account. A token in the response is persisted before
// Signup returns; the session becomes logged in when a profile is available.
func (s *Service) Signup(ctx context.Context, req client.SignupRequest) error {
	h := s.ops.Begin(OpSignup)

	res, err := s.api.Signup(ctx, req)
	if err != nil {
		return s.failAndClear(h, err)
	}

	if res.Token == "" {
		s.logger.Info("signup succeeded without a session token")
		s.setSession(false, nil)
		s.notifySuccess(res.Message)
		h.Succeed()
		return nil
	}

	if err := s.store.SetItem(ctx, tokenstore.TokenKey, res.Token); err != nil {
		return s.failAndClear(h, err)
	}

	user := res.User
	if len(user) == 0 {
		user, err = s.fetchProfile(ctx)
		if err != nil {
			// The account exists and the token is stored; the next Initialize
			// can still restore the session.
			s.logger.Warn("profile fetch after signup failed", "error", client.Message(err))
			user = nil
		}
	}
	s.setSession(len(user) > 0, user)
	s.notifySuccess(res.Message)
	h.Succeed()
	return nil
}

// Login authenticates, persists the token, then fetches the profile so the
// resulting state carries full user data. Nothing is left half-authenticated:
// if the profile fetch fails the token is removed again.
func (s *Service) Login(ctx context.Context, req client.LoginRequest) error {
	h := s.ops.Begin(OpLogin)

	res, err := s.api.Login(ctx, req)
	if err != nil {
		return s.failAndClear(h, err)
	}
	if res.Token == "" {
		return s.failAndClear(h, client.ErrMissingToken)
	}

	if err := s.store.SetItem(ctx, tokenstore.TokenKey, res.Token); err != nil {
		return s.failAndClear(h, err)
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.removeToken(ctx)
		return s.failAndClear(h, err)
	}

	s.setSession(true, user)
	s.notifySuccess(res.Message)
	h.Succeed()
	return nil
}

// Logout removes the stored token and clears the session. It always succeeds;
// a failing store is logged.
func (s *Service) Logout(ctx context.Context) error {
	h := s.ops.Begin(OpLogout)
	s.removeToken(ctx)
	s.setSession(false, nil)
	h.Succeed()
	return nil
}

// ForgotPassword asks the backend to send a reset email. Session is untouched.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	h := s.ops.Begin(OpForgotPassword)

	msg, err := s.api.ForgotPassword(ctx, email)
	if err != nil {
		s.fail(h, err, true)
		return err
	}
	s.notifySuccess(msg)
	h.Succeed()
	return nil
}

// GetUser fetches the current profile with the stored token. A 401 or 403
// evicts the token before the failure is reported; other failures keep it.
func (s *Service) GetUser(ctx context.Context) (client.User, error) {
	h := s.ops.Begin(OpGetUser)

	token, err := s.store.GetItem(ctx, tokenstore.TokenKey)
	if err != nil {
		s.setSession(false, nil)
		s.fail(h, err, false)
		return nil, err
	}
	if token == "" {
		s.setSession(false, nil)
		s.fail(h, client.ErrNoToken, false)
		return nil, client.ErrNoToken
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.setSession(false, nil)
		s.fail(h, err, false)
		return nil, err
	}

	s.setSession(true, user)
	h.Succeed()
	return user.Clone(), nil
}

// UpdateProfile applies a partial update and then re-reads the profile; the
// state takes the re-read document, not the update response. An update that
// only touches location is applied silently. A rejected re-read ends the
// session; other failures keep the previous profile.
func (s *Service) UpdateProfile(ctx context.Context, fields map[string]any) error {
	h := s.ops.Begin(OpUpdateProfile)

	msg, err := s.api.UpdateMe(ctx, fields)
	if err != nil {
		s.fail(h, err, true)
		return err
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		// fetchProfile already evicted a rejected token.
		if client.IsUnauthorized(err) {
			s.setSession(false, nil)
		}
		s.fail(h, err, true)
		return err
	}

	s.mu.Lock()
	s.session.User = user
	s.mu.Unlock()

	if _, silent := fields["location"]; !silent {
		s.notifySuccess(msg)
	}
	h.Succeed()
	return nil
}

// DeleteAccount deletes the account server-side, then evicts the token and
// clears the session.
func (s *Service) DeleteAccount(ctx context.Context) error {
	h := s.ops.Begin(OpDeleteUser)

	if _, err := s.api.DeleteUser(ctx); err != nil {
		s.fail(h, err, true)
		return err
	}

	s.removeToken(ctx)
	s.setSession(false, nil)
	s.notifySuccess(AccountDeletedMessage)
	h.Succeed()
	return nil
}

// CheckUserExists asks whether an account exists for email. No notification.
func (s *Service) CheckUserExists(ctx context.Context, email string) (bool, error) {
	h := s.ops.Begin(OpCheckUser)

	ok, err := s.api.UserExists(ctx, email)
	if err != nil {
		s.fail(h, err, false)
		return false, err
	}
	h.Succeed()
	return ok, nil
}

// RegisterPushToken stores a device push token for the current user.
func (s *Service) RegisterPushToken(ctx context.Context, token string) error {
	h := s.ops.Begin(OpPushToken)

	if err := s.api.StoreNotificationToken(ctx, token); err != nil {
		s.fail(h, err, true)
		return err
	}
	h.Succeed()
	return nil
}

// ShowTransition reports whether the presentation layer should show the
// brief "signing in" screen: only right after a successful login or signup.
func ShowTransition(st State) bool {
	if !st.Session.IsLoggedIn || st.Loading.Status != opstate.Succeeded {
		return false
	}
	return st.Loading.Operation == OpLogin || st.Loading.Operation == OpSignup
}

// fetchProfile reads the profile under the profile timeout and evicts the
// token on 401/403.
func (s *Service) fetchProfile(ctx context.Context) (client.User, error) {
	pctx, cancel := context.WithTimeout(ctx, s.profileTimeout)
	defer cancel()

	user, err := s.api.Me(pctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			s.removeToken(ctx)
		}
		return nil, err
	}
	if len(user) == 0 {
		return nil, errEmptyProfile
	}
	return user, nil
}

func (s *Service) removeToken(ctx context.Context) {
	if err := s.store.RemoveItem(ctx, tokenstore.TokenKey); err != nil {
		s.logger.Warn("removing session token failed", "error", err)
	}
}

// setSession replaces the session as one step. A nil user means empty.
func (s *Service) setSession(loggedIn bool, user client.User) {
	if user == nil {
		user = client.User{}
	}
	s.mu.Lock()
	s.session = Session{IsLoggedIn: loggedIn, User: user.Clone()}
	s.mu.Unlock()
}

func (s *Service) setInitializing(v bool) {
	s.mu.Lock()
	s.initializing = v
	s.mu.Unlock()
}

func (s *Service) failAndClear(h opstate.Handle, err error) error {
	s.setSession(false, nil)
	s.fail(h, err, true)
	return err
}

func (s *Service) fail(h opstate.Handle, err error, notifyUser bool) {
	msg := client.Message(err)
	s.logger.Debug("auth operation failed", "op_id", h.ID(), "error", msg)
	if notifyUser && msg != "" {
		s.notifier.Notify(notify.ErrorNotice(msg))
	}
	h.Fail(msg)
}

func (s *Service) notifySuccess(msg string) {
	if msg != "" {
		s.notifier.Notify(notify.SuccessNotice(msg))
	}
}
