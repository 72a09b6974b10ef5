package store

import (
	"context"
	"log"

	"github.com/JadeGeek/Awada/pkg/cache"
	"github.com/JadeGeek/Awada/pkg/memory"
	"github.com/JadeGeek/Awada/pkg/session"
)

// CachedStore layers a Redis read-through/write-through cache over a
// durable store. Cache failures degrade to the underlying store and are
// logged, never propagated.
type CachedStore struct {
	Store
	cache *cache.Cache
}

func NewCachedStore(store Store, cache *cache.Cache) *CachedStore {
	return &CachedStore{
		Store: store,
		cache: cache,
	}
}

func (c *CachedStore) SaveSession(s *session.Session) error {
	if err := c.Store.SaveSession(s); err != nil {
		return err
	}
	ctx := context.Background()
	key := c.cache.Key("session", s.UserID)
	if err := c.cache.SetJSON(ctx, key, s, cache.SessionTTL); err != nil {
		log.Printf("Error caching session for %s: %v", s.UserID, err)
	}
	return nil
}

func (c *CachedStore) SaveUserMemory(userID string, mem memory.UserMemory) error {
	if err := c.Store.SaveUserMemory(userID, mem); err != nil {
		return err
	}
	ctx := context.Background()
	key := c.cache.Key("user_memory", userID)
	if err := c.cache.SetJSON(ctx, key, mem, cache.UserMemoryTTL); err != nil {
		log.Printf("Error caching user memory for %s: %v", userID, err)
	}
	return nil
}

func (c *CachedStore) LoadUserMemory(userID string) (memory.UserMemory, error) {
	ctx := context.Background()
	key := c.cache.Key("user_memory", userID)

	var cached memory.UserMemory
	if err := c.cache.GetJSON(ctx, key, &cached); err == nil && cached != nil {
		return cached, nil
	}

	mem, err := c.Store.LoadUserMemory(userID)
	if err != nil {
		return nil, err
	}
	if mem != nil {
		if err := c.cache.SetJSON(ctx, key, mem, cache.UserMemoryTTL); err != nil {
			log.Printf("Error caching user memory for %s: %v", userID, err)
		}
	}
	return mem, nil
}
