package sm2

import (
	"math/big"
	"sync"
)

// Cache memoises pure functions used by the engine: point additions, modular
// inverses and identity digests. Entries depend only on their keys, so they
// never go stale; the cache is never evicted and grows for the lifetime of the
// value. It is safe for concurrent use. A nil *Cache disables memoisation.
//
// Lookups are data dependent. Sharing a cache between a signer and an
// untrusted party gives that party a timing side channel.
type Cache struct {
	mu       sync.RWMutex
	points   map[string]Point
	inverses map[string]*big.Int
	digests  map[string][]byte

	skipPoints bool
}

// CacheStats reports the number of entries per mapping.
type CacheStats struct {
	Points   int
	Inverses int
	Digests  int
}

// NewCache creates a cache with all three mappings enabled.
func NewCache() *Cache {
	return &Cache{
		points:   make(map[string]Point),
		inverses: make(map[string]*big.Int),
		digests:  make(map[string][]byte),
	}
}

// NewDigestCache creates a cache that memoises inverses and identity digests
// but not point additions. Scalar multiplication performs two additions per
// scalar bit, so the point mapping is the one that grows fastest.
func NewDigestCache() *Cache {
	c := NewCache()
	c.skipPoints = true
	return c
}

// Stats returns the current entry counts.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Points:   len(c.points),
		Inverses: len(c.inverses),
		Digests:  len(c.digests),
	}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.points = make(map[string]Point)
	c.inverses = make(map[string]*big.Int)
	c.digests = make(map[string][]byte)
}

func (c *Cache) point(key string) (Point, bool) {
	if c == nil || c.skipPoints {
		return Point{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.points[key]
	return p, ok
}

func (c *Cache) storePoint(key string, p Point) {
	if c == nil || c.skipPoints {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.points[key] = p
}

func (c *Cache) inverse(key string) (*big.Int, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.inverses[key]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(v), true
}

func (c *Cache) storeInverse(key string, v *big.Int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inverses[key] = new(big.Int).Set(v)
}

func (c *Cache) digest(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.digests[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), d...), true
}

func (c *Cache) storeDigest(key string, d []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.digests[key] = append([]byte(nil), d...)
}

// inverseKey is fixed width per modulus: modulus bytes followed by the value
// left padded to the modulus length.
func inverseKey(v, m *big.Int) string {
	mb := m.Bytes()
	buf := make([]byte, 2*len(mb))
	copy(buf, mb)
	v.FillBytes(buf[len(mb):])
	return string(buf)
}
