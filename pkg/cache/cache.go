// Package cache provides the short-lived key/value cache used for configuration lookups.
package cache

import "context"

// Store is a TTL cache. Get reports a miss with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
