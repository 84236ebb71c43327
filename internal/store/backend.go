package store

// Collections persisted by the store. Each is a flat key to record mapping.
const (
	CollectionDeals     = "deals"
	CollectionHistory   = "price_history"
	CollectionBaselines = "baseline_prices"
	CollectionAlerts    = "alert_history"
)

// Collections lists every collection in load order.
var Collections = []string{CollectionDeals, CollectionHistory, CollectionBaselines, CollectionAlerts}

// Backend is the durable key-value layer under a Store. Values are opaque
// encoded records. Implementations need not support concurrent writers from
// several processes; the Store serializes access within one process.
type Backend interface {
	// Load returns every record of a collection. A missing collection is empty.
	Load(collection string) (map[string][]byte, error)
	// Put replaces the records under the given keys in one write.
	Put(collection string, records map[string][]byte) error
	// Delete removes a key; deleting a missing key is not an error.
	Delete(collection, key string) error
	Close() error
}
