package ingest

import "fmt"

// RequestCache suppresses repeated metering-point metadata updates inside a
// single ingestion request. One cache is constructed per request, passed
// into the coordinator, and discarded when the request ends — it must never
// be shared across concurrent requests or reused for the next one.
type RequestCache struct {
	seen map[string]bool
}

// NewRequestCache creates an empty per-request cache
func NewRequestCache() *RequestCache {
	return &RequestCache{seen: make(map[string]bool)}
}

func cacheKey(deviceID, meteringPoint string) string {
	return fmt.Sprintf("%s|%s", deviceID, meteringPoint)
}

// MarkOnce records the (device, metering point) pair and reports whether
// this was the first time it was seen in the request
func (c *RequestCache) MarkOnce(deviceID, meteringPoint string) bool {
	key := cacheKey(deviceID, meteringPoint)
	if c.seen[key] {
		return false
	}
	c.seen[key] = true
	return true
}

// Seen reports whether the pair was already handled in this request
func (c *RequestCache) Seen(deviceID, meteringPoint string) bool {
	return c.seen[cacheKey(deviceID, meteringPoint)]
}
