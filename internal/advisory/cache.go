package advisory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheTTL  = 5 * time.Minute
	DefaultCacheSize = 1000
)

// Entry is a cached remote response.
type Entry struct {
	CreatedAt time.Time
	Response  *Response
}

// Cache holds successful remote responses keyed by service set. Capacity is
// bounded by the LRU; freshness is checked against CreatedAt so a response is
// never served past its window even if the LRU has not expired it yet.
type Cache struct {
	entries *expirable.LRU[string, *Entry]
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: expirable.NewLRU[string, *Entry](size, nil, ttl),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached response for key when it is still fresh.
func (c *Cache) Get(key string) (*Response, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.CreatedAt) >= c.ttl {
		return nil, false
	}
	return e.Response, true
}

// Put stores resp under key, replacing any older entry. There is no per-entry
// expiry: every entry lives for the TTL the cache was built with.
func (c *Cache) Put(key string, resp *Response) {
	c.entries.Add(key, &Entry{CreatedAt: c.now(), Response: resp})
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// CacheKey hashes a canonical encoding of the service set. Services are
// encoded individually and sorted, so input order does not change the key.
func CacheKey(services []ServiceInfo) string {
	encoded := make([]string, 0, len(services))
	for _, s := range services {
		b, _ := json.Marshal(s)
		encoded = append(encoded, string(b))
	}
	sort.Strings(encoded)

	h := sha256.New()
	for _, e := range encoded {
		h.Write([]byte(e))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
