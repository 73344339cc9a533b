// Package baseline finds the source document as it was at the last
// synchronization, which is what the current source is diffed against.
package baseline

import (
	"context"
	"fmt"

	"github.com/ZaguanLabs/locsync"
	"github.com/ZaguanLabs/locsync/store"
)

// Provider returns the previous version of a source document. A document
// that has never been synchronized yields an empty tree.
type Provider interface {
	Previous(ctx context.Context, sourcePath string) (*locsync.Node, error)
}

// Recorder is implemented by providers that persist the new baseline
// themselves once every language has been synchronized.
type Recorder interface {
	Record(ctx context.Context, sourcePath string, tree *locsync.Node) error
}

// Kinds of baseline accepted by New.
const (
	KindSibling = "sibling"
	KindGit     = "git"
)

// Options configures New.
type Options struct {
	Kind     string // KindSibling (default) or KindGit
	Suffix   string // snapshot suffix for KindSibling
	Revision string // revision for KindGit, default HEAD
}

// New returns the provider named by opts.Kind.
func New(st *store.Store, opts Options) (Provider, error) {
	switch opts.Kind {
	case "", KindSibling:
		return NewSibling(st, opts.Suffix), nil
	case KindGit:
		return NewGit(opts.Revision), nil
	default:
		return nil, &locsync.ConfigurationError{Message: fmt.Sprintf("unknown baseline %q (want %s or %s)", opts.Kind, KindSibling, KindGit)}
	}
}
