package weather

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TTLCache is a concurrency-safe in-memory response cache keyed by rounded
// coordinates. Entries expire after a fixed TTL; expired entries are replaced
// lazily on read.
type TTLCache struct {
	mu       sync.RWMutex
	current  map[string]currentEntry
	forecast map[string]forecastEntry
	ttl      time.Duration
	clock    clockwork.Clock
}

type currentEntry struct {
	value   CurrentConditions
	expires time.Time
}

type forecastEntry struct {
	value   Forecast
	expires time.Time
}

// NewTTLCache creates a cache whose entries live for ttl.
func NewTTLCache(ttl time.Duration, clock clockwork.Clock) *TTLCache {
	return &TTLCache{
		current:  make(map[string]currentEntry),
		forecast: make(map[string]forecastEntry),
		ttl:      ttl,
		clock:    clock,
	}
}

func (c *TTLCache) GetCurrent(key string) (CurrentConditions, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.current[key]
	if !ok || c.clock.Now().After(e.expires) {
		return CurrentConditions{}, false
	}
	return e.value, true
}

func (c *TTLCache) PutCurrent(key string, v CurrentConditions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current[key] = currentEntry{value: v, expires: c.clock.Now().Add(c.ttl)}
}

func (c *TTLCache) GetForecast(key string) (Forecast, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.forecast[key]
	if !ok || c.clock.Now().After(e.expires) {
		return Forecast{}, false
	}
	return e.value, true
}

func (c *TTLCache) PutForecast(key string, v Forecast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forecast[key] = forecastEntry{value: v, expires: c.clock.Now().Add(c.ttl)}
}
