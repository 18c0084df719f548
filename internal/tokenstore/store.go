// ABOUTME: Token Store contract for the single persisted session token
// ABOUTME: Three-method key-value interface plus the fixed key the app uses

package tokenstore

import "context"

// TokenKey is the only key the application reads or writes.
const TokenKey = "userToken"

// Store persists string values by key. GetItem on an absent key returns
// "", nil. Implementations must be safe for concurrent use.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
