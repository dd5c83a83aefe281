package memory

import (
	"context"
	"sync"
	"time"

	"github.com/carepath/memcore/internal/core"
)

type windowKey struct {
	sessionID string
	limit     int
}

type windowEntry struct {
	messages  []core.Message
	expiresAt time.Time
}

type countEntry struct {
	count     int
	expiresAt time.Time
}

// RecencyCache fronts the message store with short-TTL entries for the
// recent-window and message-count reads. Writes are not invalidated;
// they become visible when the TTL lapses, which bounds staleness.
//
// The check-then-fetch sequence is deliberately best-effort: two
// concurrent misses may both query the store and overwrite each
// other's entry. That costs a redundant read, never stale-beyond-TTL
// data.
type RecencyCache struct {
	mu       sync.RWMutex
	messages core.MessageRepository
	ttl      time.Duration
	windows  map[windowKey]windowEntry
	counts   map[string]countEntry
	now      func() time.Time
}

func NewRecencyCache(messages core.MessageRepository, ttl time.Duration) *RecencyCache {
	return &RecencyCache{
		messages: messages,
		ttl:      ttl,
		windows:  make(map[windowKey]windowEntry),
		counts:   make(map[string]countEntry),
		now:      time.Now,
	}
}

// RecentMessages returns the last 'limit' messages in chronological
// order, from cache when the entry is still fresh.
func (c *RecencyCache) RecentMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	key := windowKey{sessionID: sessionID, limit: limit}

	c.mu.RLock()
	entry, ok := c.windows[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return copyMessages(entry.messages), nil
	}

	messages, err := c.messages.ReadRecent(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.windows[key] = windowEntry{
		messages:  copyMessages(messages),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return messages, nil
}

// MessageCount returns the total message count for a session, from
// cache when fresh.
func (c *RecencyCache) MessageCount(ctx context.Context, sessionID string) (int, error) {
	c.mu.RLock()
	entry, ok := c.counts[sessionID]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.count, nil
	}

	count, err := c.messages.Count(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.counts[sessionID] = countEntry{
		count:     count,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return count, nil
}

// Invalidate drops all cached entries for a session.
func (c *RecencyCache) Invalidate(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.counts, sessionID)
	for key := range c.windows {
		if key.sessionID == sessionID {
			delete(c.windows, key)
		}
	}
}

// Copies keep callers from mutating cached state.
func copyMessages(messages []core.Message) []core.Message {
	if messages == nil {
		return nil
	}
	out := make([]core.Message, len(messages))
	copy(out, messages)
	return out
}
