package locsync

import (
	"sort"
	"strings"
)

// ChangeKind classifies an entry of a ChangeSet.
type ChangeKind uint8

const (
	// ChangeAdded marks a key that is absent from the previous document.
	ChangeAdded ChangeKind = iota + 1
	// ChangeModified marks a value that differs from the previous document,
	// including a change of kind (leaf to node or node to leaf).
	ChangeModified
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one point where the current document diverges from the previous one.
type Change struct {
	Path     Path
	Kind     ChangeKind
	Value    Tree // value in the current document
	Previous Tree // value in the previous document, nil for additions
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added    int // terminal values under added keys
	Modified int // terminal values under modified keys
	Removed  int // keys present only in the previous document
}

// ChangeSet is the sparse tree of entries that were added or modified between
// two versions of a document. Unchanged keys are omitted. Removed keys are
// tracked separately and never appear in Root.
type ChangeSet struct {
	root    *Node
	changes []Change
	removed []Path
	shrunk  int // removed array items
	stats   DiffStats
}

// Root returns the sparse change tree. It must not be modified.
func (c *ChangeSet) Root() *Node {
	if c == nil {
		return NewNode()
	}
	return c.root
}

// Len returns the number of terminal values in the change tree.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return c.stats.Added + c.stats.Modified
}

// Empty reports whether the change tree holds no terminal values.
func (c *ChangeSet) Empty() bool {
	return c.Len() == 0
}

// HasRemovals reports whether keys were removed from the document.
func (c *ChangeSet) HasRemovals() bool {
	return c != nil && len(c.removed) > 0
}

// HasListRemovals reports whether an array became shorter.
func (c *ChangeSet) HasListRemovals() bool {
	return c != nil && c.shrunk > 0
}

// Stats returns summary statistics for the diff.
func (c *ChangeSet) Stats() DiffStats {
	if c == nil {
		return DiffStats{}
	}
	return c.stats
}

// Changes returns the points of divergence sorted by path.
func (c *ChangeSet) Changes() []Change {
	if c == nil {
		return nil
	}
	out := make([]Change, len(c.changes))
	copy(out, c.changes)
	return out
}

// Removed returns the paths of keys that exist only in the previous document,
// sorted by path.
func (c *ChangeSet) Removed() []Path {
	if c == nil {
		return nil
	}
	out := make([]Path, len(c.removed))
	copy(out, c.removed)
	return out
}

// Diff computes the entries of current that are new or changed relative to
// previous. New keys are taken in full, nodes present on both sides are
// compared recursively and terminal values are compared by exact equality.
// A key whose kind differs between the two documents, including an array
// replaced by a mapping, is taken in full.
//
// Diff has no side effects. Subtrees of the result may be shared with current.
func Diff(current, previous *Node) *ChangeSet {
	cs := &ChangeSet{}
	cs.root = cs.diffNode(nil, current, previous)
	sort.Slice(cs.changes, func(i, j int) bool {
		return comparePaths(cs.changes[i].Path, cs.changes[j].Path) < 0
	})
	sort.Slice(cs.removed, func(i, j int) bool {
		return comparePaths(cs.removed[i], cs.removed[j]) < 0
	})
	return cs
}

func (c *ChangeSet) diffNode(prefix Path, current, previous *Node) *Node {
	out := emptyLike(current)

	current.Range(func(key string, cur Tree) bool {
		path := prefix.Child(key)
		prev, existed := previous.Get(key)

		switch {
		case !existed:
			out.Set(key, cur)
			c.record(Change{Path: path, Kind: ChangeAdded, Value: cur})

		case !sameShape(cur, prev):
			out.Set(key, cur)
			c.record(Change{Path: path, Kind: ChangeModified, Value: cur, Previous: prev})

		case cur.Kind() == KindNode:
			sub := c.diffNode(path, cur.(*Node), prev.(*Node))
			if sub.Len() > 0 {
				out.Set(key, sub)
			}

		case !Equal(cur, prev):
			out.Set(key, cur)
			c.record(Change{Path: path, Kind: ChangeModified, Value: cur, Previous: prev})
		}
		return true
	})

	previous.Range(func(key string, _ Tree) bool {
		if _, ok := current.Get(key); !ok {
			c.removed = append(c.removed, prefix.Child(key))
			c.stats.Removed++
			if previous.IsList() {
				c.shrunk++
			}
		}
		return true
	})

	return out
}

// sameShape reports whether a and b have the same kind and, for nodes, the
// same list flag. An array replaced by a mapping is not diffed key by key.
func sameShape(a, b Tree) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if an, ok := a.(*Node); ok {
		return an.IsList() == b.(*Node).IsList()
	}
	return true
}

func (c *ChangeSet) record(ch Change) {
	c.changes = append(c.changes, ch)
	switch ch.Kind {
	case ChangeAdded:
		c.stats.Added += CountLeaves(ch.Value)
	case ChangeModified:
		c.stats.Modified += CountLeaves(ch.Value)
	}
}

func comparePaths(a, b Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if r := strings.Compare(a[i], b[i]); r != 0 {
			return r
		}
	}
	return len(a) - len(b)
}
