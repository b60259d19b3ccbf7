package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"coinheist/internal/storage"
)

// Cache keys for the read-through lists.
const (
	keyAdmins = "admins"
	keyBanned = "banned"
)

const cacheTTL = time.Minute

// Checker answers admin and ban questions for the presentation layer. Super
// admins come from config; junior admins and bans live in the store and are
// read through an expiring cache. Admin-management commands must call
// Invalidate after mutating either list.
type Checker struct {
	store *storage.Store
	super map[int64]bool
	cache *expirable.LRU[string, map[int64]bool]
	log   *zap.Logger
}

// NewChecker creates a checker with the given super admin ids.
func NewChecker(store *storage.Store, superAdmins []int64, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	super := make(map[int64]bool, len(superAdmins))
	for _, id := range superAdmins {
		super[id] = true
	}
	return &Checker{
		store: store,
		super: super,
		cache: expirable.NewLRU[string, map[int64]bool](4, nil, cacheTTL),
		log:   log,
	}
}

// IsSuperAdmin reports whether the user is a configured super admin.
func (c *Checker) IsSuperAdmin(userID int64) bool {
	return c.super[userID]
}

func (c *Checker) load(ctx context.Context, key string, fetch func(context.Context) ([]int64, error)) (map[int64]bool, error) {
	if set, ok := c.cache.Get(key); ok {
		return set, nil
	}
	ids, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s list: %w", key, err)
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	c.cache.Add(key, set)
	return set, nil
}

// IsAdmin reports whether the user is a super admin or a junior admin.
func (c *Checker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if c.super[userID] {
		return true, nil
	}
	admins, err := c.load(ctx, keyAdmins, c.store.ListAdmins)
	if err != nil {
		return false, err
	}
	return admins[userID], nil
}

// IsBanned reports whether the user is blocked. Admins are never treated as
// banned.
func (c *Checker) IsBanned(ctx context.Context, userID int64) (bool, error) {
	isAdmin, err := c.IsAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return false, nil
	}
	banned, err := c.load(ctx, keyBanned, c.store.ListBanned)
	if err != nil {
		return false, err
	}
	return banned[userID], nil
}

// AdminIDs returns all admin ids, super admins first, for notifications.
func (c *Checker) AdminIDs(ctx context.Context) ([]int64, error) {
	admins, err := c.load(ctx, keyAdmins, c.store.ListAdmins)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(c.super)+len(admins))
	for id := range c.super {
		ids = append(ids, id)
	}
	for id := range admins {
		if !c.super[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Invalidate drops the cached lists. Called after admin or ban CRUD.
func (c *Checker) Invalidate() {
	c.cache.Remove(keyAdmins)
	c.cache.Remove(keyBanned)
	c.log.Debug("auth cache invalidated")
}
