package locsync

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the shape of a Tree value.
type Kind uint8

const (
	// KindLeaf is a translatable string.
	KindLeaf Kind = iota + 1
	// KindNode is a mapping from key to sub-tree.
	KindNode
	// KindScalar is a non-string scalar (number, bool, null) carried verbatim.
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindNode:
		return "node"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Tree is a value in a document: a Leaf, a *Node or a Scalar.
type Tree interface {
	Kind() Kind
	sealed()
}

// Leaf is a terminal string value. Leaves are the only values sent for translation.
type Leaf string

// Kind returns KindLeaf.
func (Leaf) Kind() Kind { return KindLeaf }
func (Leaf) sealed()    {}

// Scalar holds a non-string scalar from the serialized document.
// It is never translated and is copied into translations unchanged.
type Scalar struct {
	Value any
}

// Kind returns KindScalar.
func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) sealed()    {}

// Node is a mapping from key to Tree that remembers insertion order.
//
// A nil *Node reads as an empty node. A node decoded from an array is flagged
// as a list; its keys are decimal indices.
type Node struct {
	keys  []string
	items map[string]Tree
	list  bool
}

// NewNode returns an empty mapping node.
func NewNode() *Node {
	return &Node{items: make(map[string]Tree)}
}

// NewList returns an empty node flagged as a list.
func NewList() *Node {
	n := NewNode()
	n.list = true
	return n
}

// Kind returns KindNode.
func (n *Node) Kind() Kind { return KindNode }
func (n *Node) sealed()    {}

// IsList reports whether the node was decoded from an array.
func (n *Node) IsList() bool {
	return n != nil && n.list
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Get returns the child stored under key.
func (n *Node) Get(key string) (Tree, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.items[key]
	return v, ok
}

// Child returns the child under key when it is a node.
func (n *Node) Child(key string) (*Node, bool) {
	v, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Node)
	return child, ok
}

// Set stores v under key. New keys are appended after existing ones.
func (n *Node) Set(key string, v Tree) {
	if n.items == nil {
		n.items = make(map[string]Tree)
	}
	if _, ok := n.items[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.items[key] = v
}

// Delete removes key and reports whether it was present.
func (n *Node) Delete(key string) bool {
	if n == nil {
		return false
	}
	if _, ok := n.items[key]; !ok {
		return false
	}
	delete(n.items, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Range calls fn for every child in insertion order until fn returns false.
func (n *Node) Range(fn func(key string, v Tree) bool) {
	if n == nil {
		return
	}
	for _, k := range n.keys {
		if !fn(k, n.items[k]) {
			return
		}
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		keys:  make([]string, len(n.keys)),
		items: make(map[string]Tree, len(n.items)),
		list:  n.list,
	}
	copy(out.keys, n.keys)
	for k, v := range n.items {
		out.items[k] = cloneTree(v)
	}
	return out
}

// emptyLike returns an empty node with the same list flag as n.
func emptyLike(n *Node) *Node {
	if n.IsList() {
		return NewList()
	}
	return NewNode()
}

func cloneTree(v Tree) Tree {
	if n, ok := v.(*Node); ok {
		return n.Clone()
	}
	return v
}

// Equal reports whether two trees are structurally equal. Key order is ignored.
func Equal(a, b Tree) bool {
	if a == nil || b == nil {
		return isAbsent(a) && isAbsent(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Leaf:
		return av == b.(Leaf)
	case Scalar:
		return reflect.DeepEqual(av.Value, b.(Scalar).Value)
	case *Node:
		bv := b.(*Node)
		if av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			mine, _ := av.Get(k)
			other, ok := bv.Get(k)
			if !ok || !Equal(mine, other) {
				return false
			}
		}
		return true
	}
	return false
}

func isAbsent(v Tree) bool {
	if v == nil {
		return true
	}
	n, ok := v.(*Node)
	return ok && n == nil
}

// Path addresses a value inside a document.
type Path []string

// String joins the keys with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Child returns a new path extended with key. The receiver is not modified.
func (p Path) Child(key string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = key
	return out
}

// Walk calls fn for every terminal value (Leaf or Scalar) below n, depth first
// in insertion order. Walking stops at the first error.
func Walk(n *Node, fn func(path Path, v Tree) error) error {
	return walk(nil, n, fn)
}

func walk(prefix Path, n *Node, fn func(path Path, v Tree) error) error {
	for _, k := range n.Keys() {
		v := n.items[k]
		p := prefix.Child(k)
		if child, ok := v.(*Node); ok {
			if err := walk(p, child, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(p, v); err != nil {
			return err
		}
	}
	return nil
}

// CountLeaves returns the number of terminal values (Leaf and Scalar) in v.
func CountLeaves(v Tree) int {
	switch t := v.(type) {
	case *Node:
		count := 0
		t.Range(func(_ string, child Tree) bool {
			count += CountLeaves(child)
			return true
		})
		return count
	case Leaf, Scalar:
		return 1
	default:
		return 0
	}
}

// FromMap builds a node from plain Go values: strings become leaves, maps
// become nodes, slices become list nodes and anything else becomes a Scalar.
// Map keys are inserted in sorted order.
func FromMap(m map[string]any) *Node {
	n := NewNode()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Set(k, fromValue(m[k]))
	}
	return n
}

func fromValue(v any) Tree {
	switch t := v.(type) {
	case string:
		return Leaf(t)
	case map[string]any:
		return FromMap(t)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return FromMap(m)
	case []any:
		list := NewList()
		for i, item := range t {
			list.Set(strconv.Itoa(i), fromValue(item))
		}
		return list
	case Tree:
		return t
	default:
		return Scalar{Value: t}
	}
}

// ToMap converts the node back to plain Go values. List nodes become slices.
func (n *Node) ToMap() map[string]any {
	out := make(map[string]any, n.Len())
	n.Range(func(k string, v Tree) bool {
		out[k] = toValue(v)
		return true
	})
	return out
}

// Plain converts a single tree value to plain Go values the way ToMap does.
func Plain(v Tree) any {
	if v == nil {
		return nil
	}
	return toValue(v)
}

func toValue(v Tree) any {
	switch t := v.(type) {
	case Leaf:
		return string(t)
	case Scalar:
		return t.Value
	case *Node:
		if t.IsList() {
			items := t.ListItems()
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = toValue(item)
			}
			return out
		}
		return t.ToMap()
	default:
		panic(fmt.Sprintf("locsync: unexpected tree value %T", v))
	}
}

// ListItems returns the children of a list node ordered by numeric index.
// Keys that are not indices sort after all indices, in insertion order.
func (n *Node) ListItems() []Tree {
	keys := n.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		default:
			return false
		}
	})
	out := make([]Tree, len(keys))
	for i, k := range keys {
		out[i] = n.items[k]
	}
	return out
}
