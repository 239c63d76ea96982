package fff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fffscraper/lib/timezone"
)

func TestSessionStoreRoundtrip(t *testing.T) {
	store := NewSessionStore()
	path := filepath.Join(t.TempDir(), "session.json")

	token := SessionToken{
		Value:      "abc123",
		ObtainedAt: timezone.Now(),
		Email:      "user@example.com",
	}
	err := store.Save(path, token)
	require.NoError(t, err)

	loaded, ok := store.Load(path)
	require.True(t, ok)
	require.Equal(t, "abc123", loaded.Value)
	require.Equal(t, "user@example.com", loaded.Email)
	require.Equal(t, token.ObtainedAt.Unix(), loaded.ObtainedAt.Unix())
}

func TestSessionStoreMissingFile(t *testing.T) {
	store := NewSessionStore()
	_, ok := store.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.False(t, ok)
}

func TestSessionStoreMalformedFile(t *testing.T) {
	store := NewSessionStore()
	path := filepath.Join(t.TempDir(), "session.json")

	err := os.WriteFile(path, []byte("{not json"), 0600)
	require.NoError(t, err)

	_, ok := store.Load(path)
	require.False(t, ok)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore()

	testCases := []struct {
		name       string
		obtainedAt time.Time
		expectOk   bool
	}{
		{
			name:       "fresh",
			obtainedAt: timezone.Now().Add(-time.Hour),
			expectOk:   true,
		},
		{
			name: "at the boundary",
			// stays valid at exactly the maximum age; a little
			// slack covers the time between save and load
			obtainedAt: timezone.Now().Add(-DefaultSessionMaxAge + time.Second),
			expectOk:   true,
		},
		{
			name:       "past the boundary",
			obtainedAt: timezone.Now().Add(-DefaultSessionMaxAge - time.Hour),
			expectOk:   false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			err := store.Save(path, SessionToken{
				Value:      "abc123",
				ObtainedAt: test.obtainedAt,
				Email:      "user@example.com",
			})
			require.NoError(t, err)

			_, ok := store.Load(path)
			require.Equal(t, test.expectOk, ok)
		})
	}
}

func TestSessionStoreOverwrites(t *testing.T) {
	store := NewSessionStore()
	path := filepath.Join(t.TempDir(), "session.json")

	err := store.Save(path, SessionToken{
		Value:      "old",
		ObtainedAt: timezone.Now(),
		Email:      "user@example.com",
	})
	require.NoError(t, err)
	err = store.Save(path, SessionToken{
		Value:      "new",
		ObtainedAt: timezone.Now(),
		Email:      "user@example.com",
	})
	require.NoError(t, err)

	loaded, ok := store.Load(path)
	require.True(t, ok)
	require.Equal(t, "new", loaded.Value)
}
