package types

import "context"

// Loader is the contract between a cache and whatever owns the data behind it.
//
// Load is called on a cache miss by the read-through path (GetOrLoad). The
// returned value is stored in the cache; an error is returned to the caller
// and nothing is cached.
type Loader[K comparable, V any] interface {
	Load(ctx context.Context, key K) (V, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Load calls f(ctx, key).
func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}
