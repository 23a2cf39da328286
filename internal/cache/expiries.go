package cache

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	zcache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/syncx"
)

var errNotFound = errors.New("cache: not found")

// kv is the subset of go-zero's cache.Cache used here.
type kv interface {
	GetCtx(ctx context.Context, key string, val any) error
	SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error
	IsNotFound(err error) bool
}

// ExpiryStore caches per-year expiry lists.
type ExpiryStore struct {
	remote kv
	local  *collection.Cache
	ttl    time.Duration
}

// NewRedisExpiryStore backs the store with Redis through go-zero's cache.
func NewRedisExpiryStore(conf zcache.CacheConf, ttl TTLSet) *ExpiryStore {
	c := zcache.New(conf, syncx.NewSingleFlight(), zcache.NewStat("nse-expiries"), errNotFound,
		zcache.WithExpiry(ExpiryListTTL(ttl)))
	return &ExpiryStore{remote: c, ttl: ExpiryListTTL(ttl)}
}

// NewMemoryExpiryStore keeps lists in process memory for the life of the process.
func NewMemoryExpiryStore(ttl TTLSet) (*ExpiryStore, error) {
	local, err := collection.NewCache(ExpiryListTTL(ttl), collection.WithName("nse-expiries"))
	if err != nil {
		return nil, err
	}
	return &ExpiryStore{local: local, ttl: ExpiryListTTL(ttl)}, nil
}

func newExpiryStore(remote kv, ttl time.Duration) *ExpiryStore {
	return &ExpiryStore{remote: remote, ttl: ttl}
}

// GetExpiries returns the cached list and whether it was present.
func (s *ExpiryStore) GetExpiries(ctx context.Context, symbol string, year int) ([]string, bool, error) {
	key := ExpiryListKey(symbol, year)
	if s.local != nil {
		v, ok := s.local.Get(key)
		if !ok {
			return nil, false, nil
		}
		dates, _ := v.([]string)
		return dates, true, nil
	}

	var dates []string
	if err := s.remote.GetCtx(ctx, key, &dates); err != nil {
		if s.remote.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return dates, true, nil
}

// SetExpiries stores the list for a closed year.
func (s *ExpiryStore) SetExpiries(ctx context.Context, symbol string, year int, dates []string) error {
	key := ExpiryListKey(symbol, year)
	if s.local != nil {
		s.local.Set(key, append([]string(nil), dates...))
		return nil
	}
	return s.remote.SetWithExpireCtx(ctx, key, dates, s.ttl)
}
