package fff

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"fffscraper/lib/timezone"
)

// SessionToken is the opaque credential produced by a successful login.
// Tokens are never mutated, re-authentication always replaces them.
type SessionToken struct {
	Value      string
	ObtainedAt time.Time
	Email      string
}

func (t SessionToken) Age() time.Duration {
	return timezone.Now().Sub(t.ObtainedAt)
}

// the site invalidates sessions server-side after roughly two weeks,
// older cached tokens are treated as absent
const DefaultSessionMaxAge = 14 * 24 * time.Hour

// SessionStore persists one session token as a small json file:
// {"session_id": ..., "timestamp": epoch seconds, "email": ...}.
// Single process, single writer; no locking.
type SessionStore struct {
	MaxAge time.Duration
}

func NewSessionStore() SessionStore {
	return SessionStore{MaxAge: DefaultSessionMaxAge}
}

type sessionFile struct {
	SessionId string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
	Email     string `json:"email"`
}

// Load reads a previously saved token. A missing file, malformed
// contents or a token past its maximum age all report an absent
// result; none of them are errors to the caller.
func (s SessionStore) Load(path string) (SessionToken, bool) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return SessionToken{}, false
	}
	if err != nil {
		slog.Warn("failed to read session file", "path", path, "err", err)
		return SessionToken{}, false
	}

	var stored sessionFile
	err = json.Unmarshal(contents, &stored)
	if err != nil {
		slog.Warn("malformed session file", "path", path, "err", err)
		return SessionToken{}, false
	}
	if stored.SessionId == "" {
		slog.Warn("session file holds no session id", "path", path)
		return SessionToken{}, false
	}

	token := SessionToken{
		Value:      stored.SessionId,
		ObtainedAt: time.Unix(stored.Timestamp, 0).In(timezone.Location),
		Email:      stored.Email,
	}
	// a token exactly at the boundary is still usable
	if token.Age() > s.MaxAge {
		slog.Info("cached session is too old", "age", token.Age())
		return SessionToken{}, false
	}

	return token, true
}

// Save overwrites any previously stored token. Failure is reported to
// the caller but should never abort a run, a session that only lives
// in memory still works.
func (s SessionStore) Save(path string, token SessionToken) error {
	contents, err := json.Marshal(sessionFile{
		SessionId: token.Value,
		Timestamp: token.ObtainedAt.Unix(),
		Email:     token.Email,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0600)
}
