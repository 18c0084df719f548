// ABOUTME: Vault state machine mirroring the user's groups and password entries
// ABOUTME: Keeps the local collections in step with server mutations, with a PIN gate on group deletion

package vault

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/buggiebug/Secure-Vault/internal/client"
	"github.com/buggiebug/Secure-Vault/internal/notify"
	"github.com/buggiebug/Secure-Vault/internal/opstate"
	"github.com/buggiebug/Secure-Vault/internal/validate"
)

// Operation names recorded in LoadingState.
const (
	OpFetchGroups    = "fetchGroups"
	OpFetchPasswords = "fetchPasswords"
	OpAddGroup       = "addGroup"
	OpDeleteGroup    = "deleteGroup"
	OpAddPassword    = "addPassword"
	OpDeletePassword = "deletePassword"
)

// MinPINLength is checked locally before a PIN is sent for verification.
const MinPINLength = 6

// Success notifications.
const (
	GroupAddedMessage      = "Group added successfully"
	GroupDeletedMessage    = "Group deleted successfully"
	PasswordAddedMessage   = "Password added successfully"
	PasswordDeletedMessage = "Password deleted successfully"
)

var (
	// ErrReservedGroup is returned for attempts to delete the "all" group.
	ErrReservedGroup = errors.New("the All group cannot be deleted")
	// ErrPINTooShort is returned before verification when the PIN is too short.
	ErrPINTooShort = errors.New("PIN must be at least 6 characters")
	// ErrVerificationFailed wraps a rejected PIN verification.
	ErrVerificationFailed = errors.New("PIN verification failed")
)

// API is the subset of the HTTP client the vault uses.
type API interface {
	Groups(ctx context.Context) ([]client.Group, error)
	CreateGroup(ctx context.Context, g client.NewGroup) (string, error)
	DeleteGroup(ctx context.Context, id string) (string, error)
	Passwords(ctx context.Context) ([]client.PasswordEntry, error)
	CreatePassword(ctx context.Context, e client.NewEntry) (*client.PasswordEntry, error)
	DeletePassword(ctx context.Context, id string) (string, error)
	VerifyPassword(ctx context.Context, password string) error
}

// State is a read-only snapshot of the vault.
type State struct {
	Groups    []client.Group
	Passwords []client.PasswordEntry
	Loading   opstate.LoadingState
	Ops       []opstate.Op
}

// Counts backs the header line of the vault screen.
type Counts struct {
	Total     int
	Filtered  int
	GroupName string
}

// Machine is the vault state machine as seen by the presentation layer.
type Machine interface {
	Load(ctx context.Context) error
	FetchGroups(ctx context.Context) error
	FetchPasswords(ctx context.Context) error
	AddGroup(ctx context.Context, g client.NewGroup) error
	DeleteGroup(ctx context.Context, id, pin string) error
	AddPassword(ctx context.Context, e client.NewEntry) error
	DeletePassword(ctx context.Context, id string) error

	FilteredPasswords(groupID string) []client.PasswordEntry
	Search(query, groupID string) []client.PasswordEntry
	GroupName(id string) string
	GroupColor(id string) string
	GroupIcon(id string) string
	AvailableGroups() []client.Group
	Counts(groupID string) Counts

	ClearError()
	Reset()
	Snapshot() State
}

// Options configures a Service.
type Options struct {
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// Service implements Machine.
type Service struct {
	api      API
	notifier notify.Notifier
	logger   *slog.Logger
	ops      *opstate.Tracker

	mu        sync.RWMutex
	groups    []client.Group
	passwords []client.PasswordEntry
}

var _ Machine = (*Service)(nil)

// New returns a vault holding only the built-in groups.
func New(api API, opts Options) *Service {
	s := &Service{
		api:       api,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		ops:       opstate.New(),
		groups:    BuiltinGroups(),
		passwords: []client.PasswordEntry{},
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Snapshot returns copies of the collections and the loading state.
func (s *Service) Snapshot() State {
	s.mu.RLock()
	st := State{
		Groups:    slices.Clone(s.groups),
		Passwords: slices.Clone(s.passwords),
	}
	s.mu.RUnlock()
	st.Loading = s.ops.State()
	st.Ops = s.ops.InFlight()
	return st
}

// ClearError drops the error message from the loading state.
func (s *Service) ClearError() {
	s.ops.ClearError()
}

// Reset drops everything fetched so far, for use after logout.
func (s *Service) Reset() {
	s.mu.Lock()
	s.groups = BuiltinGroups()
	s.passwords = []client.PasswordEntry{}
	s.mu.Unlock()
	s.ops.Reset()
}

// Load fetches groups and passwords concurrently. Each settles on its own;
// the first error is returned.
func (s *Service) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchGroups(ctx) })
	g.Go(func() error { return s.FetchPasswords(ctx) })
	return g.Wait()
}

// FetchGroups replaces the group collection with the server's. On failure the
// collection is left as it was.
func (s *Service) FetchGroups(ctx context.Context) error {
	h := s.ops.Begin(OpFetchGroups)
	if err := s.refreshGroups(ctx); err != nil {
		s.fail(h, err, false)
		return err
	}
	h.Succeed()
	return nil
}

// FetchPasswords replaces the password collection with the server's.
func (s *Service) FetchPasswords(ctx context.Context) error {
	h := s.ops.Begin(OpFetchPasswords)
	entries, err := s.api.Passwords(ctx)
	if err != nil {
		s.fail(h, err, false)
		return err
	}
	s.setPasswords(entries)
	h.Succeed()
	return nil
}

// AddGroup creates a group and then re-reads the list so local ids and order
// match the server's.
func (s *Service) AddGroup(ctx context.Context, g client.NewGroup) error {
	h := s.ops.Begin(OpAddGroup)

	g.Name = strings.TrimSpace(g.Name)
	if err := validate.Struct(validate.Group{Name: g.Name}); err != nil {
		s.fail(h, err, true)
		return err
	}
	g.Icon = strings.TrimSpace(g.Icon)
	if g.Icon == "" {
		g.Icon = DefaultGroupIcon
	}
	if g.Color == "" {
		g.Color = pickColor()
	}

	if _, err := s.api.CreateGroup(ctx, g); err != nil {
		s.fail(h, err, true)
		return err
	}
	if err := s.refreshGroups(ctx); err != nil {
		s.fail(h, err, true)
		return err
	}

	s.notifySuccess(GroupAddedMessage)
	h.Succeed()
	return nil
}

// DeleteGroup verifies pin with the server and then deletes group id along
// with every entry in it. "all" is refused and a short PIN is rejected before
// any request is made.
func (s *Service) DeleteGroup(ctx context.Context, id, pin string) error {
	if id == AllGroupID {
		s.notifier.Notify(notify.ErrorNotice(ErrReservedGroup.Error()))
		return ErrReservedGroup
	}

	h := s.ops.Begin(OpDeleteGroup)

	if len(pin) < MinPINLength {
		s.fail(h, ErrPINTooShort, true)
		return ErrPINTooShort
	}
	if err := s.api.VerifyPassword(ctx, pin); err != nil {
		s.fail(h, err, true)
		return errors.Wrap(ErrVerificationFailed, client.Message(err))
	}

	if _, err := s.api.DeleteGroup(ctx, id); err != nil {
		s.fail(h, err, true)
		return err
	}

	s.mu.Lock()
	s.groups = slices.DeleteFunc(slices.Clone(s.groups), func(g client.Group) bool { return g.ID == id })
	s.passwords = slices.DeleteFunc(slices.Clone(s.passwords), func(p client.PasswordEntry) bool { return p.Group == id })
	s.mu.Unlock()

	s.logger.Debug("group deleted", "group_id", id, "default", IsDefault(id))
	s.notifySuccess(GroupDeletedMessage)
	h.Succeed()
	return nil
}

// AddPassword stores a new entry and appends the server's copy locally. An
// entry without a group goes to the individual group.
func (s *Service) AddPassword(ctx context.Context, e client.NewEntry) error {
	h := s.ops.Begin(OpAddPassword)

	e.Title = strings.TrimSpace(e.Title)
	if err := validate.Struct(validate.Entry{Title: e.Title, Password: e.Password}); err != nil {
		s.fail(h, err, true)
		return err
	}
	if e.Group == "" {
		e.Group = IndividualGroupID
	}

	entry, err := s.api.CreatePassword(ctx, e)
	if err != nil {
		s.fail(h, err, true)
		return err
	}

	if entry != nil {
		s.mu.Lock()
		s.passwords = append(slices.Clone(s.passwords), *entry)
		s.mu.Unlock()
	} else {
		// Nothing to append; pick the new entry up from the list instead.
		entries, err := s.api.Passwords(ctx)
		if err != nil {
			s.fail(h, err, true)
			return err
		}
		s.setPasswords(entries)
	}

	s.notifySuccess(PasswordAddedMessage)
	h.Succeed()
	return nil
}

// DeletePassword deletes entry id and removes it locally.
func (s *Service) DeletePassword(ctx context.Context, id string) error {
	h := s.ops.Begin(OpDeletePassword)

	if _, err := s.api.DeletePassword(ctx, id); err != nil {
		s.fail(h, err, true)
		return err
	}

	s.mu.Lock()
	s.passwords = slices.DeleteFunc(slices.Clone(s.passwords), func(p client.PasswordEntry) bool { return p.ID == id })
	s.mu.Unlock()

	s.notifySuccess(PasswordDeletedMessage)
	h.Succeed()
	return nil
}

// FilteredPasswords returns every entry for "all", otherwise the entries in
// groupID.
func (s *Service) FilteredPasswords(groupID string) []client.PasswordEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.passwords, groupID)
}

// Search narrows FilteredPasswords(groupID) to entries whose title, username,
// website or notes contain query, ignoring case.
func (s *Service) Search(query, groupID string) []client.PasswordEntry {
	entries := s.FilteredPasswords(groupID)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	return slices.DeleteFunc(entries, func(p client.PasswordEntry) bool {
		for _, field := range []string{p.Title, p.Username, p.Website, p.Notes} {
			if strings.Contains(strings.ToLower(field), q) {
				return false
			}
		}
		return true
	})
}

func (s *Service) GroupName(id string) string {
	if g, ok := s.group(id); ok {
		return g.Name
	}
	return UnknownGroupName
}

func (s *Service) GroupColor(id string) string {
	if g, ok := s.group(id); ok && g.Color != "" {
		return g.Color
	}
	return UnknownGroupColor
}

func (s *Service) GroupIcon(id string) string {
	if g, ok := s.group(id); ok && g.Icon != "" {
		return g.Icon
	}
	return DefaultGroupIcon
}

// AvailableGroups returns the groups an entry can be filed under.
func (s *Service) AvailableGroups() []client.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]client.Group, 0, len(s.groups))
	for _, g := range s.groups {
		if g.ID != AllGroupID {
			out = append(out, g)
		}
	}
	return out
}

// Counts returns the totals shown above the list for groupID.
func (s *Service) Counts(groupID string) Counts {
	s.mu.RLock()
	total := len(s.passwords)
	filtered := len(filter(s.passwords, groupID))
	s.mu.RUnlock()
	return Counts{Total: total, Filtered: filtered, GroupName: s.GroupName(groupID)}
}

func (s *Service) group(id string) (client.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return client.Group{}, false
}

func (s *Service) refreshGroups(ctx context.Context) error {
	server, err := s.api.Groups(ctx)
	if err != nil {
		return err
	}
	merged := mergeGroups(server)
	s.mu.Lock()
	s.groups = merged
	s.mu.Unlock()
	return nil
}

func (s *Service) setPasswords(entries []client.PasswordEntry) {
	if entries == nil {
		entries = []client.PasswordEntry{}
	}
	s.mu.Lock()
	s.passwords = entries
	s.mu.Unlock()
}

func (s *Service) fail(h opstate.Handle, err error, notifyUser bool) {
	msg := errMessage(err)
	s.logger.Debug("vault operation failed", "op_id", h.ID(), "error", msg)
	if notifyUser && msg != "" {
		s.notifier.Notify(notify.ErrorNotice(msg))
	}
	h.Fail(msg)
}

func (s *Service) notifySuccess(msg string) {
	s.notifier.Notify(notify.SuccessNotice(msg))
}

func errMessage(err error) string {
	var ve *validate.Error
	if errors.As(err, &ve) {
		return strings.Join(ve.Messages, "\n")
	}
	return client.Message(err)
}

func filter(entries []client.PasswordEntry, groupID string) []client.PasswordEntry {
	if groupID == AllGroupID {
		return slices.Clone(entries)
	}
	out := []client.PasswordEntry{}
	for _, p := range entries {
		if p.Group == groupID {
			out = append(out, p)
		}
	}
	return out
}
