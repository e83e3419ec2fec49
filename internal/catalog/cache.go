package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v2"
)

// CachedRepository keeps services in a local LRU. Profiles are always read
// through, since agent status and referrals change outside this service.
type CachedRepository struct {
	next  Repository
	cache *ccache.Cache
	ttl   time.Duration
}

func NewCachedRepository(next Repository, maxSize int64, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		next: next,
		cache: ccache.New(ccache.Configure().
			MaxSize(maxSize).
			ItemsToPrune(uint32(maxSize/10 + 1))),
		ttl: ttl,
	}
}

func (r *CachedRepository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	key := "service:" + id.String()
	if item := r.cache.Get(key); item != nil && !item.Expired() {
		s := item.Value().(Service)
		return &s, nil
	}

	s, err := r.next.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, *s, r.ttl)
	return s, nil
}

func (r *CachedRepository) ListServices(ctx context.Context, category Category) ([]Service, error) {
	key := "services:" + string(category)
	if item := r.cache.Get(key); item != nil && !item.Expired() {
		cached := item.Value().([]Service)
		return append([]Service(nil), cached...), nil
	}

	services, err := r.next.ListServices(ctx, category)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, append([]Service(nil), services...), r.ttl)
	return services, nil
}

func (r *CachedRepository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.next.GetProfile(ctx, id)
}

func (r *CachedRepository) Close() {
	r.cache.Stop()
}
