package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// OAuthStateRepository keeps short-lived OAuth "state" values so the callback
// can reject forged or replayed redirects.
type OAuthStateRepository struct {
	cache *cache.Cache
}

func NewOAuthStateRepository(ttl time.Duration) *OAuthStateRepository {
	return &OAuthStateRepository{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *OAuthStateRepository) Save(state string) {
	r.cache.Set(state, struct{}{}, cache.DefaultExpiration)
}

// Consume reports whether the state was issued and not yet used, and invalidates it.
func (r *OAuthStateRepository) Consume(state string) bool {
	if _, found := r.cache.Get(state); !found {
		return false
	}
	r.cache.Delete(state)
	return true
}
