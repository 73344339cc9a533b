package locsync

import "context"

type keyPathKey struct{}

// WithKeyPath returns a context that carries the key path of the leaf being translated.
func WithKeyPath(ctx context.Context, path Path) context.Context {
	return context.WithValue(ctx, keyPathKey{}, path)
}

// KeyPathFromContext returns the key path attached by the Merger, if any.
// Translators use it as disambiguation context.
func KeyPathFromContext(ctx context.Context) (Path, bool) {
	p, ok := ctx.Value(keyPathKey{}).(Path)
	return p, ok
}
