package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Replay is a stored HTTP outcome for a client-supplied idempotency key.
type Replay struct {
	StatusCode int
	Body       []byte
}

type ReplayRepository struct {
	cache *cache.Cache
}

func NewReplayRepository(ttl time.Duration) *ReplayRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	return &ReplayRepository{
		cache: c,
	}
}

func (r *ReplayRepository) Save(key string, replay *Replay) {
	r.cache.Set(key, replay, cache.DefaultExpiration)
}

func (r *ReplayRepository) Get(key string) (*Replay, bool) {
	if x, found := r.cache.Get(key); found {
		return x.(*Replay), true
	}
	return nil, false
}

func (r *ReplayRepository) Delete(key string) {
	r.cache.Delete(key)
}
