package alert

import (
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
)

// Deferred holds deal keys whose alerts were suppressed by quiet hours.
// Entries expire after the TTL so a deal that never qualifies again is
// eventually forgotten.
type Deferred struct {
	c *cache.Cache
}

// NewDeferred creates a queue whose entries live for ttl.
func NewDeferred(ttl time.Duration) *Deferred {
	return &Deferred{c: cache.New(ttl, ttl/4)}
}

// Add queues a key, refreshing its TTL.
func (d *Deferred) Add(key string) {
	d.c.Set(key, time.Now(), cache.DefaultExpiration)
}

// Remove drops a key.
func (d *Deferred) Remove(key string) {
	d.c.Delete(key)
}

// Keys returns the queued keys that have not expired, oldest first.
func (d *Deferred) Keys() []string {
	items := d.c.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, _ := items[keys[i]].Object.(time.Time)
		tj, _ := items[keys[j]].Object.(time.Time)
		if ti.Equal(tj) {
			return keys[i] < keys[j]
		}
		return ti.Before(tj)
	})
	return keys
}

// Len is the number of queued keys.
func (d *Deferred) Len() int {
	return d.c.ItemCount()
}
