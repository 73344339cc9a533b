package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ZaguanLabs/locsync"
	"gopkg.in/yaml.v3"
)

// YAML is the codec for .yaml and .yml documents. Key order is preserved;
// string values are leaves and every other scalar is carried verbatim.
type YAML struct{}

// Decode implements Codec.
func (YAML) Decode(data []byte) (*locsync.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return locsync.NewNode(), nil
		}
		root = root.Content[0]
	}
	switch {
	case root.Kind == 0:
		return locsync.NewNode(), nil
	case root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null":
		return locsync.NewNode(), nil
	case root.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	d := &yamlDecoder{expanding: make(map[*yaml.Node]bool)}
	v, err := d.decode(root)
	if err != nil {
		return nil, err
	}
	return v.(*locsync.Node), nil
}

// maxAliasExpansions bounds the work done expanding aliases, so documents
// that nest aliases exponentially are rejected.
const maxAliasExpansions = 10000

type yamlDecoder struct {
	expanding  map[*yaml.Node]bool
	expansions int
}

func (d *yamlDecoder) decode(n *yaml.Node) (locsync.Tree, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unknown anchor %q", n.Line, n.Value)
		}
		if d.expanding[n.Alias] {
			return nil, fmt.Errorf("line %d: alias *%s refers to itself", n.Line, n.Value)
		}
		d.expansions++
		if d.expansions > maxAliasExpansions {
			return nil, fmt.Errorf("line %d: too many alias expansions", n.Line)
		}
		d.expanding[n.Alias] = true
		defer delete(d.expanding, n.Alias)
		return d.decode(n.Alias)

	case yaml.MappingNode:
		out := locsync.NewNode()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			if k.ShortTag() == "!!merge" {
				if err := d.merge(out, v); err != nil {
					return nil, err
				}
				continue
			}
			child, err := d.decode(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.Value, err)
			}
			out.Set(k.Value, child)
		}
		return out, nil

	case yaml.SequenceNode:
		list := locsync.NewList()
		for i, item := range n.Content {
			child, err := d.decode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list.Set(strconv.Itoa(i), child)
		}
		return list, nil

	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			return locsync.Leaf(n.Value), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return locsync.Scalar{Value: v}, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

// merge applies a "<<" merge key: keys from the merged mappings are added
// unless already present.
func (d *yamlDecoder) merge(dst *locsync.Node, v *yaml.Node) error {
	sources := []*yaml.Node{v}
	if v.Kind == yaml.SequenceNode {
		sources = v.Content
	}
	for _, src := range sources {
		t, err := d.decode(src)
		if err != nil {
			return err
		}
		m, ok := t.(*locsync.Node)
		if !ok {
			return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
		}
		m.Range(func(key string, child locsync.Tree) bool {
			if _, exists := dst.Get(key); !exists {
				dst.Set(key, child)
			}
			return true
		})
	}
	return nil
}

// Encode implements Codec.
func (YAML) Encode(n *locsync.Node) ([]byte, error) {
	root, err := toYAML(n)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toYAML(v locsync.Tree) (*yaml.Node, error) {
	switch t := v.(type) {
	case locsync.Leaf:
		return yamlScalar(string(t))
	case locsync.Scalar:
		return yamlScalar(plainScalar(t.Value))
	case *locsync.Node:
		if t.IsList() {
			seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for _, item := range t.ListItems() {
				child, err := toYAML(item)
				if err != nil {
					return nil, err
				}
				seq.Content = append(seq.Content, child)
			}
			return seq, nil
		}

		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range t.Keys() {
			child, _ := t.Get(key)
			val, err := toYAML(child)
			if err != nil {
				return nil, err
			}
			k, err := yamlScalar(key)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, k, val)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unexpected value %T", v)
	}
}

func yamlScalar(v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// plainScalar turns a json.Number into an int64 or float64 so documents
// converted from JSON keep numeric types.
func plainScalar(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := num.Int64(); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}
