package store

import (
	"time"

	"cancelflow-be/internal/entity"
	"cancelflow-be/internal/pkg/securerand"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const replayTokenLength = 32

// tokenRegistry holds the session replay tokens in a TTL cache. Expired
// entries are purged in the background and also rejected lazily on use.
type tokenRegistry struct {
	ttl   time.Duration
	cache *cache.Cache
}

func newTokenRegistry(ttl time.Duration) *tokenRegistry {
	return &tokenRegistry{
		ttl:   ttl,
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *tokenRegistry) issue(accountID uuid.UUID, now time.Time) entity.ReplayToken {
	token := entity.ReplayToken{
		Token:     securerand.Token(replayTokenLength),
		AccountId: accountID,
		ExpiresAt: now.Add(r.ttl),
	}
	r.cache.Set(token.Token, token, r.ttl)
	return token
}

func (r *tokenRegistry) validate(token string, accountID uuid.UUID, now time.Time) bool {
	x, found := r.cache.Get(token)
	if !found {
		return false
	}
	rt := x.(entity.ReplayToken)
	return rt.AccountId == accountID && !rt.Expired(now)
}

// snapshot returns the live tokens as the durable token_registry map.
func (r *tokenRegistry) snapshot(now time.Time) map[string]entity.ReplayToken {
	out := make(map[string]entity.ReplayToken)
	for key, item := range r.cache.Items() {
		rt := item.Object.(entity.ReplayToken)
		if !rt.Expired(now) {
			out[key] = rt
		}
	}
	return out
}

func (r *tokenRegistry) restore(registry map[string]entity.ReplayToken, now time.Time) {
	r.cache.Flush()
	for key, rt := range registry {
		if rt.Expired(now) {
			continue
		}
		r.cache.Set(key, rt, rt.ExpiresAt.Sub(now))
	}
}

func (r *tokenRegistry) clear() {
	r.cache.Flush()
}

func (r *tokenRegistry) count() int {
	return r.cache.ItemCount()
}
