// ABOUTME: Request and response types for the SecureVault API
// ABOUTME: Entities accept either _id or id on decode and always encode _id

package client

import (
	"encoding/json"
	"time"
)

// User is the profile document returned by the backend. Its shape is owned
// by the server, so it is kept as a free-form map.
type User map[string]any

// Name returns the "name" field when present.
func (u User) Name() string {
	return u.String("name")
}

// String returns field k when it holds a string.
func (u User) String(k string) string {
	if s, ok := u[k].(string); ok {
		return s
	}
	return ""
}

// Clone returns a shallow copy, never nil.
func (u User) Clone() User {
	out := make(User, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// AuthResult is the decoded outcome of signup and login.
type AuthResult struct {
	Message string
	Token   string
	User    User
}

// SignupRequest is the body of POST /api/auth/signup. Exactly one of Email
// or Mobile is expected.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Password string `json:"password"`
}

// Group is a category of password entries.
type Group struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (g *Group) UnmarshalJSON(data []byte) error {
	type alias Group
	var aux struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*g = Group(aux.alias)
	if g.ID == "" {
		g.ID = aux.AltID
	}
	return nil
}

// NewGroup is the body of POST /api/pm/groups.
type NewGroup struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// PasswordEntry is one stored credential.
type PasswordEntry struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Website   string    `json:"website"`
	Notes     string    `json:"notes"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

func (p *PasswordEntry) UnmarshalJSON(data []byte) error {
	type alias PasswordEntry
	var aux struct {
		alias
		AltID   string `json:"id"`
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PasswordEntry(aux.alias)
	if p.ID == "" {
		p.ID = aux.AltID
	}
	if p.Group == "" {
		p.Group = aux.GroupID
	}
	return nil
}

// NewEntry is the body of POST /api/pm/passwords. The group id is sent under
// both "group" and "groupId".
type NewEntry struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
	Website  string `json:"website"`
	Notes    string `json:"notes"`
	Group    string `json:"group"`
}

func (e NewEntry) MarshalJSON() ([]byte, error) {
	type alias NewEntry
	return json.Marshal(struct {
		alias
		GroupID string `json:"groupId"`
	}{alias(e), e.Group})
}
