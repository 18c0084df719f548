// ABOUTME: Password manager endpoints under /api/pm
// ABOUTME: Group and password entry CRUD used by the vault state machine

package client

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// Groups calls GET /api/pm/groups
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	env, _, err := c.do(ctx, http.MethodGet, "/api/pm/groups", nil)
	if err != nil {
		return nil, err
	}
	groups := []Group{}
	if err := decodeData(env, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup calls POST /api/pm/groups. The response body is ignored; the
// caller re-reads the list to learn the server-assigned id.
func (c *Client) CreateGroup(ctx context.Context, g NewGroup) (string, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/api/pm/groups", g)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// DeleteGroup calls DELETE /api/pm/groups/{id}
func (c *Client) DeleteGroup(ctx context.Context, id string) (string, error) {
	env, _, err := c.do(ctx, http.MethodDelete, "/api/pm/groups/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Passwords calls GET /api/pm/passwords
func (c *Client) Passwords(ctx context.Context) ([]PasswordEntry, error) {
	env, _, err := c.do(ctx, http.MethodGet, "/api/pm/passwords", nil)
	if err != nil {
		return nil, err
	}
	entries := []PasswordEntry{}
	if err := decodeData(env, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreatePassword calls POST /api/pm/passwords and returns the stored entry.
// The result is nil when the backend answers without an entry.
func (c *Client) CreatePassword(ctx context.Context, e NewEntry) (*PasswordEntry, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/api/pm/passwords", e)
	if err != nil {
		return nil, err
	}
	// Some deployments answer with an empty list instead of the entry.
	if d := bytes.TrimSpace(env.Data); len(d) > 0 && d[0] == '[' {
		return nil, nil
	}
	var entry *PasswordEntry
	if err := decodeData(env, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeletePassword calls DELETE /api/pm/passwords/{id}
func (c *Client) DeletePassword(ctx context.Context, id string) (string, error) {
	env, _, err := c.do(ctx, http.MethodDelete, "/api/pm/passwords/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
