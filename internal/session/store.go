package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// TTL bounds how long a browser session survives without a new login.
const TTL = 30 * 24 * time.Hour

const keyPrefix = "session:"

// ErrNotFound is returned when no record exists for a session ID.
var ErrNotFound = errors.New("session not found")

// Record is what the frontend persists per browser session: the backend
// bearer token plus the user object exactly as the backend returned it.
type Record struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// Store persists session records under fixed keys.
type Store interface {
	Save(ctx context.Context, sid string, rec Record) error
	Load(ctx context.Context, sid string) (Record, error)
	Delete(ctx context.Context, sid string) error
	Close() error
}

func storeKey(sid string) string { return keyPrefix + sid }
