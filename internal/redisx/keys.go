package redisx

import "time"

const (
	// Cache of an order's current status: order:status:{order_id}.
	KeyOrderStatus = "order:status:%s"

	// Dedup of consumed events: dedup:{service}:{event_id}.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
