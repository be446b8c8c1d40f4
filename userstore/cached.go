package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	cachedStore struct {
		Store
		// writers hold mu exclusively while changing the inner store and
		// invalidating, readers hold it shared while filling the cache, so a
		// token cleared by Save or DeleteByID is never put back.
		mu    sync.RWMutex
		cache *bigcache.BigCache
	}

	cacheEntry struct {
		ID             string `json:"id"`
		Email          string `json:"email"`
		Username       string `json:"username"`
		Salt           string `json:"salt"`
		PasswordDigest string `json:"password_digest"`
		Revision       int64  `json:"revision"`
	}
)

// Cached keeps session token lookups of inner in memory for at most ttl.
func Cached(inner Store, ttl time.Duration) (Store, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create session cache, cause %w", err)
	}
	return &cachedStore{Store: inner, cache: cache}, nil
}

// FindBySessionToken only trusts a cached entry while the stored revision
// of the account still matches it. Other processes (the admin cli) write to
// the same database without going through this cache.
func (c *cachedStore) FindBySessionToken(ctx context.Context, token string) (*UserCredential, error) {
	if token == "" {
		return nil, NotFound{Lookup: "session token"}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.lookup(token); ok {
		rev, err := c.Store.Revision(ctx, e.ID)
		switch {
		case err == nil && rev == e.Revision:
			return e.credential(token), nil
		case err != nil && !errors.As(err, &NotFound{}):
			return nil, err
		}
		c.forget(token)
	}
	uc, err := c.Store.FindBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if buf, err := json.Marshal(newCacheEntry(uc)); err == nil {
		c.cache.Set(cacheKey(token), buf)
	}
	return uc, nil
}

func (c *cachedStore) Save(ctx context.Context, uc *UserCredential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forget(uc.SessionToken)
	old, err := c.Store.FindByID(ctx, uc.ID)
	switch {
	case err == nil:
		c.forget(old.SessionToken)
	case !errors.As(err, &NotFound{}):
		return err
	}
	return c.Store.Save(ctx, uc)
}

func (c *cachedStore) DeleteByID(ctx context.Context, id string) (*UserCredential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	uc, err := c.Store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.forget(uc.SessionToken)
	return uc, nil
}

func (c *cachedStore) Close() error {
	cerr := c.cache.Close()
	if err := c.Store.Close(); err != nil {
		return err
	}
	return cerr
}

func (c *cachedStore) lookup(token string) (cacheEntry, bool) {
	var e cacheEntry
	buf, err := c.cache.Get(cacheKey(token))
	if err != nil {
		return e, false
	}
	if err = json.Unmarshal(buf, &e); err != nil {
		c.forget(token)
		return e, false
	}
	return e, true
}

func (c *cachedStore) forget(token string) {
	if token == "" {
		return
	}
	c.cache.Delete(cacheKey(token))
}

func cacheKey(token string) string {
	return "session/" + token
}

func newCacheEntry(uc *UserCredential) cacheEntry {
	return cacheEntry{
		ID:             uc.ID,
		Email:          uc.Email,
		Username:       uc.Username,
		Salt:           uc.Salt,
		PasswordDigest: uc.PasswordDigest,
		Revision:       uc.Revision,
	}
}

func (e cacheEntry) credential(token string) *UserCredential {
	return &UserCredential{
		Identity: Identity{
			ID:       e.ID,
			Email:    e.Email,
			Username: e.Username,
		},
		Salt:           e.Salt,
		PasswordDigest: e.PasswordDigest,
		SessionToken:   token,
		Revision:       e.Revision,
	}
}
