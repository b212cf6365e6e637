package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is the version of the persisted session document
const SchemaVersion = 1

// ErrUnknownSchema is returned for session documents written by another version
var ErrUnknownSchema = errors.New("unknown session schema version")

// Session is the signed-in state restored on start-up.
// There is no token and no expiry; logging out clears it.
type Session struct {
	User            *User     `json:"user"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	SavedAt         time.Time `json:"savedAt"`
}

// NewSession starts an authenticated session for u
func NewSession(u User, now time.Time) Session {
	return Session{User: &u, IsAuthenticated: true, SavedAt: now}
}

// LoggedOut is the empty session
func LoggedOut() Session {
	return Session{}
}

// Active reports whether the session carries a signed-in user
func (s Session) Active() bool {
	return s.IsAuthenticated && s.User != nil
}

type sessionDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	Session
}

// EncodeSession serializes a session with its schema version
func EncodeSession(s Session) ([]byte, error) {
	return json.MarshalIndent(sessionDocument{SchemaVersion: SchemaVersion, Session: s}, "", "  ")
}

// DecodeSession parses a stored session. Documents of another schema
// version return ErrUnknownSchema and must be treated as logged out.
func DecodeSession(data []byte) (Session, error) {
	var doc sessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Session{}, fmt.Errorf("decoding session: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return Session{}, fmt.Errorf("%w: %d", ErrUnknownSchema, doc.SchemaVersion)
	}
	if !doc.Active() {
		return LoggedOut(), nil
	}
	return doc.Session, nil
}

// SessionStore persists the session between runs
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
