package storage

import (
	"time"

	"github.com/eko/gocache/store"
	gocache "github.com/patrickmn/go-cache"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// TokenCache issues opaque tokens that resolve to a username until they expire.
type TokenCache struct {
	name  string
	ttl   time.Duration
	cache *store.GoCacheStore
}

func NewTokenCache(name string, ttl time.Duration) *TokenCache {
	return &TokenCache{
		name:  name,
		ttl:   ttl,
		cache: store.NewGoCache(gocache.New(ttl, 2*ttl), nil),
	}
}

// Issue creates a new token for username.
func (c *TokenCache) Issue(username string) (string, error) {
	token := uuid.NewV4().String()
	err := c.cache.Set(token, username, &store.Options{Expiration: c.ttl})
	if err != nil {
		log.Errorf("[%s Cache] could not set token: %v", c.name, err)
		return "", err
	}
	log.Tracef("[%s Cache] issued token for %s", c.name, username)
	return token, nil
}

// Lookup returns the username of an unexpired token.
func (c *TokenCache) Lookup(token string) (string, bool) {
	v, err := c.cache.Get(token)
	if err != nil {
		return "", false
	}
	username, ok := v.(string)
	return username, ok
}

// Revoke makes token unusable.
func (c *TokenCache) Revoke(token string) {
	if err := c.cache.Delete(token); err != nil {
		log.Tracef("[%s Cache] revoke: %v", c.name, err)
	}
}
