package bot

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"coinheist/internal/storage"
)

const channelCacheTTL = 5 * time.Minute

// channelCache is a read-through cache over the required-channels list so the
// subscription gate does not hit the store on every update.
type channelCache struct {
	store *storage.Store
	cache *expirable.LRU[string, []storage.Channel]
}

func newChannelCache(store *storage.Store) *channelCache {
	return &channelCache{
		store: store,
		cache: expirable.NewLRU[string, []storage.Channel](1, nil, channelCacheTTL),
	}
}

func (c *channelCache) List(ctx context.Context) ([]storage.Channel, error) {
	if channels, ok := c.cache.Get("channels"); ok {
		return channels, nil
	}
	channels, err := c.store.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add("channels", channels)
	return channels, nil
}

// Invalidate drops the cached list. Called after channel CRUD.
func (c *channelCache) Invalidate() {
	c.cache.Remove("channels")
}
