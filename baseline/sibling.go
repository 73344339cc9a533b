package baseline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZaguanLabs/locsync"
	"github.com/ZaguanLabs/locsync/store"
)

// DefaultSuffix is inserted before the extension of the source file name to
// form the snapshot name.
const DefaultSuffix = ".prev"

// Sibling keeps the baseline in a snapshot file next to the source:
// locales/en.json is remembered in locales/en.prev.json.
type Sibling struct {
	store  *store.Store
	suffix string
}

// NewSibling creates a sibling-snapshot provider. An empty suffix uses DefaultSuffix.
func NewSibling(st *store.Store, suffix string) *Sibling {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Sibling{store: st, suffix: suffix}
}

// SnapshotPath returns the snapshot file used for sourcePath.
func (s *Sibling) SnapshotPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return strings.TrimSuffix(sourcePath, ext) + s.suffix + ext
}

// Previous implements Provider. A missing snapshot yields an empty tree.
func (s *Sibling) Previous(ctx context.Context, sourcePath string) (*locsync.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Load(s.SnapshotPath(sourcePath))
}

// Record implements Recorder.
func (s *Sibling) Record(ctx context.Context, sourcePath string, tree *locsync.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Save(s.SnapshotPath(sourcePath), tree)
}

var (
	_ Provider = (*Sibling)(nil)
	_ Recorder = (*Sibling)(nil)
)
