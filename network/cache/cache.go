package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module"
	"github.com/attestnet/attest/module/metrics"
)

// DefaultShards is the default number of independently locked shards of a MessageCache.
const DefaultShards = 16

// Key identifies one message as seen from one peer.
type Key struct {
	Fingerprint quorum.Fingerprint
	Peer        quorum.PeerID
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Fingerprint, k.Peer)
}

// MessageCache is a bounded, time-windowed de-duplication store mapping (fingerprint, peer)
// to the time the pair was last seen. It is split into shards selected by the fingerprint,
// each guarded by its own lock, so concurrent callers for different messages do not
// contend. Every operation is atomic on its own; sequences of calls are not serialized.
// All entries for a given fingerprint live in the same shard.
type MessageCache struct {
	log     zerolog.Logger
	name    string
	metrics module.CacheMetrics
	now     func() time.Time
	shards  []*shard
	mask    uint8
	entries *atomic.Int64
}

type shard struct {
	sync.Mutex
	lru *simplelru.LRU[Key, time.Time]
}

type Option func(*MessageCache)

// WithClock sets the time source of the cache. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *MessageCache) {
		c.now = now
	}
}

// WithMetrics reports cache size and evictions under the given resource name.
func WithMetrics(name string, collector module.CacheMetrics) Option {
	return func(c *MessageCache) {
		c.name = name
		c.metrics = collector
	}
}

// NewMessageCache creates a cache holding at most roughly capacity entries, split over
// DefaultShards shards. Once a shard is full, its least recently used entry is evicted.
func NewMessageCache(log zerolog.Logger, capacity int, opts ...Option) (*MessageCache, error) {
	return newMessageCache(log, capacity, DefaultShards, opts...)
}

func newMessageCache(log zerolog.Logger, capacity int, shards int, opts ...Option) (*MessageCache, error) {
	if shards <= 0 || shards > 256 || shards&(shards-1) != 0 {
		return nil, fmt.Errorf("number of shards must be a power of two in [1, 256], got %d", shards)
	}
	if capacity < shards {
		return nil, fmt.Errorf("capacity (%d) must be at least the number of shards (%d)", capacity, shards)
	}

	c := &MessageCache{
		name:    "message_cache",
		metrics: metrics.NewNoopCollector(),
		now:     time.Now,
		shards:  make([]*shard, shards),
		mask:    uint8(shards - 1),
		entries: atomic.NewInt64(0),
	}
	for _, apply := range opts {
		apply(c)
	}
	c.log = log.With().Str("component", "message_cache").Str("cache", c.name).Logger()

	for i := range c.shards {
		lru, err := simplelru.NewLRU[Key, time.Time](capacity/shards, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create lru for shard %d: %w", i, err)
		}
		c.shards[i] = &shard{lru: lru}
	}

	return c, nil
}

func (c *MessageCache) shard(f quorum.Fingerprint) *shard {
	return c.shards[f[0]&c.mask]
}

// Insert records the key as seen now. Returns true if the key was not present.
func (c *MessageCache) Insert(key Key) bool {
	s := c.shard(key.Fingerprint)
	s.Lock()
	defer s.Unlock()

	_, found := s.lru.Peek(key)
	c.add(s, key)
	return !found
}

// Get returns the time the key was last seen.
func (c *MessageCache) Get(key Key) (time.Time, bool) {
	s := c.shard(key.Fingerprint)
	s.Lock()
	defer s.Unlock()

	return s.lru.Peek(key)
}

// Contains returns true if the key is in the cache.
func (c *MessageCache) Contains(key Key) bool {
	s := c.shard(key.Fingerprint)
	s.Lock()
	defer s.Unlock()

	return s.lru.Contains(key)
}

// Remove deletes the key. Returns true if the key was present.
func (c *MessageCache) Remove(key Key) bool {
	s := c.shard(key.Fingerprint)
	s.Lock()
	defer s.Unlock()

	removed := s.lru.Remove(key)
	if removed {
		c.changed(-1)
	}
	return removed
}

// RemoveFingerprint deletes the entries of every peer for the given message. Returns
// the number of entries removed.
func (c *MessageCache) RemoveFingerprint(f quorum.Fingerprint) int {
	s := c.shard(f)
	s.Lock()
	defer s.Unlock()

	removed := 0
	for _, key := range s.lru.Keys() {
		if key.Fingerprint == f && s.lru.Remove(key) {
			removed++
		}
	}
	if removed > 0 {
		c.changed(int64(-removed))
	}
	return removed
}

// CheckAndTouch implements the rebroadcast rule in a single atomic step: the first
// sighting of a key records the current time and returns true. Later calls return true
// only if strictly more than the interval passed since the recorded time, in which case
// the recorded time is refreshed.
func (c *MessageCache) CheckAndTouch(key Key, interval time.Duration) bool {
	s := c.shard(key.Fingerprint)
	s.Lock()
	defer s.Unlock()

	now := c.now()
	last, found := s.lru.Get(key)
	if !found {
		c.add(s, key)
		return true
	}
	if now.Sub(last) > interval {
		s.lru.Add(key, now)
		return true
	}
	return false
}

// Prune removes every entry last seen more than the given duration ago. Returns the
// number of entries removed.
func (c *MessageCache) Prune(olderThan time.Duration) int {
	now := c.now()
	removed := 0
	for _, s := range c.shards {
		s.Lock()
		for _, key := range s.lru.Keys() {
			last, ok := s.lru.Peek(key)
			if ok && now.Sub(last) > olderThan && s.lru.Remove(key) {
				removed++
			}
		}
		s.Unlock()
	}
	if removed > 0 {
		c.changed(int64(-removed))
		c.log.Debug().Int("removed", removed).Dur("older_than", olderThan).Msg("pruned message cache")
	}
	return removed
}

// Len returns the number of entries in the cache.
func (c *MessageCache) Len() int {
	return int(c.entries.Load())
}

// add must be called with the shard locked.
func (c *MessageCache) add(s *shard, key Key) {
	existed := s.lru.Contains(key)
	evicted := s.lru.Add(key, c.now())
	switch {
	case evicted:
		c.metrics.CacheEviction(c.name)
		c.log.Trace().Str("key", key.String()).Msg("message cache full, evicted oldest entry")
		c.changed(0)
	case !existed:
		c.changed(1)
	}
}

func (c *MessageCache) changed(delta int64) {
	n := c.entries.Add(delta)
	c.metrics.CacheEntries(c.name, uint(n))
}
