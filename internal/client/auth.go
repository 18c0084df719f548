// ABOUTME: Account and session endpoints under /api/auth
// ABOUTME: Decodes the token and profile out of the response envelope once

package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// authData is the "data" object of signup and login responses.
type authData struct {
	Token     string `json:"token"`
	UserToken string `json:"userToken"`
	User      User   `json:"user"`
}

func (c *Client) authCall(ctx context.Context, path string, in any) (*AuthResult, error) {
	env, raw, err := c.do(ctx, http.MethodPost, path, in)
	if err != nil {
		return nil, err
	}

	var data authData
	if err := decodeData(env, &data); err != nil {
		return nil, err
	}
	res := &AuthResult{Message: env.Message, Token: data.UserToken, User: data.User}
	if res.Token == "" {
		res.Token = data.Token
	}
	if res.User == nil {
		var top struct {
			User User `json:"user"`
		}
		if err := json.Unmarshal(raw, &top); err == nil {
			res.User = top.User
		}
	}
	return res, nil
}

// Signup calls POST /api/auth/signup
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	return c.authCall(ctx, "/api/auth/signup", req)
}

// Login calls POST /api/auth/login. A 2xx without a token is returned as-is;
// callers decide whether that is a failure.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	return c.authCall(ctx, "/api/auth/login", req)
}

// ForgotPassword calls POST /api/auth/forgot-password and returns the server message.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// DeleteUser calls POST /api/auth/deleteUser
func (c *Client) DeleteUser(ctx context.Context) (string, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/api/auth/deleteUser", nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Me calls GET /api/auth/user/me. The profile may come back bare, under
// "data", or under "user".
func (c *Client) Me(ctx context.Context) (User, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/api/auth/user/me", nil)
	if err != nil {
		return nil, err
	}
	return decodeProfile(raw)
}

// UpdateMe calls PATCH /api/auth/user/me/update and returns the server message.
// The response body is not trusted as the new profile; call Me afterwards.
func (c *Client) UpdateMe(ctx context.Context, fields map[string]any) (string, error) {
	env, _, err := c.do(ctx, http.MethodPatch, "/api/auth/user/me/update", fields)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// UserExists calls POST /api/auth/userexist. A 404 means no such user.
func (c *Client) UserExists(ctx context.Context, email string) (bool, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/api/auth/userexist", map[string]string{"email": email})
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}

	var data struct {
		Exists *bool `json:"exists"`
	}
	// data may be a bare value; only an object with "exists" is authoritative.
	if json.Unmarshal(env.Data, &data) == nil && data.Exists != nil {
		return *data.Exists, nil
	}
	return true, nil
}

// StoreNotificationToken calls POST /api/app/notification/store-token
func (c *Client) StoreNotificationToken(ctx context.Context, token string) error {
	_, _, err := c.do(ctx, http.MethodPost, "/api/app/notification/store-token", map[string]string{"token": token})
	return err
}

// VerifyPassword calls POST /api/auth/verify-password. A nil error means the
// backend accepted the password for the current session.
func (c *Client) VerifyPassword(ctx context.Context, password string) error {
	_, _, err := c.do(ctx, http.MethodPost, "/api/auth/verify-password", map[string]string{"password": password})
	return err
}

func decodeProfile(raw []byte) (User, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errInvalidResponse(err)
	}
	for _, key := range []string{"data", "user"} {
		if nested, ok := doc[key]; ok {
			var u User
			if json.Unmarshal(nested, &u) == nil && u != nil {
				return u, nil
			}
		}
	}

	// A null or non-object data/user is an empty profile, not a field of one.
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, errInvalidResponse(err)
	}
	delete(u, "message")
	delete(u, "data")
	delete(u, "user")
	return u, nil
}
