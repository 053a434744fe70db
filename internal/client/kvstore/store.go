// Package kvstore is the client's local persistence: a small key-value
// table in a sqlite database under the data directory.
package kvstore

import "context"

// Store persists opaque values by key. Get returns (nil, nil) for a
// missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
