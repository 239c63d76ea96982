package fffstats

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"fffscraper/lib/scrapers/fff"
)

// sessionCache layers an in-memory cache over the on-disk session
// store. A token found on disk is probe-verified before it is trusted;
// only when both miss does a full login handshake run.
type sessionCache struct {
	cache *expirable.LRU[string, fff.SessionToken]
	store fff.SessionStore
	auth  fff.AuthClient
	path  string
}

func newSessionCache(auth fff.AuthClient, path string) sessionCache {
	return sessionCache{
		cache: expirable.NewLRU[string, fff.SessionToken](8, nil, time.Minute*15),
		store: fff.NewSessionStore(),
		auth:  auth,
		path:  path,
	}
}

func (s sessionCache) Get(ctx context.Context, email, password string) (fff.SessionToken, bool) {
	cached, hit := s.cache.Get(email)
	if hit {
		return cached, true
	}

	stored, ok := s.store.Load(s.path)
	if ok && stored.Email == email {
		if s.auth.Verify(ctx, stored.Value) {
			slog.InfoContext(ctx, "reusing cached session", "email", email)
			s.cache.Add(email, stored)
			return stored, true
		}
		slog.WarnContext(ctx, "cached session no longer valid, re-authenticating", "email", email)
	}

	token, ok := s.auth.Authenticate(ctx, email, password)
	if !ok {
		return fff.SessionToken{}, false
	}

	err := s.store.Save(s.path, token)
	if err != nil {
		// a session that only lives in memory still works for this run
		slog.WarnContext(ctx, "failed to persist session", "path", s.path, "err", err)
	}

	s.cache.Add(email, token)
	return token, true
}
