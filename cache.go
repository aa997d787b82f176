package faber

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/faber/compiler/gen"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent or its
// entry has expired.
var ErrCacheMiss = errors.New("faber: cache miss")

// Cache memoizes validation reports and other derived results keyed by
// config content. Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value stored under key. It returns ErrCacheMiss
	// when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key with an optional TTL. A zero ttl
	// keeps the value until it is deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the value stored under key.
	Delete(ctx context.Context, key string) error

	// Clear removes every value from the cache.
	Clear(ctx context.Context) error
}

// CacheKey derives a stable key from its parts. Equal parts in equal
// order hash to equal keys, so results keyed by config bytes are
// reusable across processes and cache backends.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// entry is the stored form of one cache value. Entries carry their
// expiry inside the encoded blob, so external backends without native
// TTL support can share the codec with MemoryCache.
type entry struct {
	Value     []byte    `msgpack:"v"`
	ExpiresAt time.Time `msgpack:"x,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// EncodeEntry seals a value and its TTL into the stored entry form.
func EncodeEntry(value []byte, ttl time.Duration) ([]byte, error) {
	e := entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	return msgpack.Marshal(e)
}

// DecodeEntry opens a stored entry and returns its value. An expired
// entry decodes to ErrCacheMiss.
func DecodeEntry(b []byte) ([]byte, error) {
	var e entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	if e.expired(time.Now()) {
		return nil, ErrCacheMiss
	}
	return e.Value, nil
}

// MemoryCache is an in-process Cache backed by a map. Expired entries
// are dropped lazily, on the access that finds them expired.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// Get implements the Cache interface.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	v, err := DecodeEntry(b)
	if err != nil {
		// Expired or undecodable entries are dropped on access.
		delete(c.entries, key)
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return v, nil
}

// Set implements the Cache interface.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b, err := EncodeEntry(value, ttl)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = b
	c.mu.Unlock()
	return nil
}

// Delete implements the Cache interface.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear implements the Cache interface.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries. Expired entries count
// until the access that drops them.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ValidateCached is Validate with memoization: the issue report of a
// config is cached under a hash of its bytes. Configs that fail to
// parse are never cached, and a failing cache write never fails the
// validation itself. A nil cache validates directly.
func ValidateCached(ctx context.Context, cache Cache, config []byte, ttl time.Duration) ([]gen.Issue, error) {
	if cache == nil {
		domain, err := ParseBytes(config)
		if err != nil {
			return nil, err
		}
		return Validate(domain)
	}
	key := CacheKey("validate", string(config))
	if b, err := cache.Get(ctx, key); err == nil {
		var issues []gen.Issue
		if err := msgpack.Unmarshal(b, &issues); err == nil {
			return issues, nil
		}
		_ = cache.Delete(ctx, key)
	}
	domain, err := ParseBytes(config)
	if err != nil {
		return nil, err
	}
	issues, err := Validate(domain)
	if err != nil {
		return nil, err
	}
	if b, err := msgpack.Marshal(issues); err == nil {
		_ = cache.Set(ctx, key, b, ttl)
	}
	return issues, nil
}
