package cache

import (
	"context"
	"time"

	"github.com/fedgraph/fedgraph/pkg/observability"
)

// instrumented wraps a Cache so every operation emits cache hooks, labeled
// by the key's namespace. Backends stay free of observability calls; wrap
// at construction time when metrics are wanted.
type instrumented struct {
	inner Cache
}

// Instrumented wraps c with cache hook emission.
func Instrumented(c Cache) Cache {
	return &instrumented{inner: c}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := i.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (i *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := i.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	return i.inner.Delete(ctx, key)
}

func (i *instrumented) Close() error {
	return i.inner.Close()
}

var _ Cache = (*instrumented)(nil)
