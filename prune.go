package locsync

// Prune removes from translated every key that has no counterpart in source
// and returns the number of keys removed. Nodes are compared recursively;
// a key whose kind differs from the source is left for the next merge to fix.
func Prune(translated, source *Node) int {
	if translated == nil {
		return 0
	}
	removed := 0
	for _, key := range translated.Keys() {
		v, _ := translated.Get(key)
		src, ok := source.Get(key)
		if !ok {
			translated.Delete(key)
			removed++
			continue
		}
		child, isNode := v.(*Node)
		srcChild, srcIsNode := src.(*Node)
		if isNode && srcIsNode {
			removed += Prune(child, srcChild)
		}
	}
	return removed
}

// TrimLists removes from every array in translated the items past the end of
// the matching source array and returns the number of items removed. Mapping
// keys are never removed.
func TrimLists(translated, source *Node) int {
	if translated == nil || source == nil {
		return 0
	}
	removed := 0
	if translated.IsList() && source.IsList() {
		for _, key := range translated.Keys() {
			if _, ok := source.Get(key); !ok {
				translated.Delete(key)
				removed++
			}
		}
	}
	translated.Range(func(key string, v Tree) bool {
		child, isNode := v.(*Node)
		if srcChild, ok := source.Child(key); isNode && ok {
			removed += TrimLists(child, srcChild)
		}
		return true
	})
	return removed
}
