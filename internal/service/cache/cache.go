package cache

import "time"

// BytesCache stores raw API payloads with TTL. Both source clients
// consult it before going to the network.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
