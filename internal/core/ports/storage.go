package ports

import (
	"context"
	"time"
)

// ObjectStorage issues capability-scoped URLs for single objects. Byte
// transfer happens between the client and the store; this service never
// sees object content.
type ObjectStorage interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// ObjectURL derives the durable, unsigned reference for key.
	ObjectURL(key string) string
}
