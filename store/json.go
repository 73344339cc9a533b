package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZaguanLabs/locsync"
)

// JSON is the codec for .json documents. Key order is preserved, numbers are
// kept as json.Number and output is indented by two spaces without HTML
// escaping.
type JSON struct{}

// Decode implements Codec.
func (JSON) Decode(data []byte) (*locsync.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return locsync.NewNode(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("top level must be an object, found %v", tok)
	}
	n, err := decodeJSONObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level object")
	}
	return n, nil
}

func decodeJSONObject(dec *json.Decoder) (*locsync.Node, error) {
	n := locsync.NewNode()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, found %v", tok)
		}
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		n.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeJSONArray(dec *json.Decoder) (*locsync.Node, error) {
	list := locsync.NewList()
	for i := 0; dec.More(); i++ {
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		list.Set(fmt.Sprint(i), v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeJSONValue(dec *json.Decoder) (locsync.Tree, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
		return nil, fmt.Errorf("unexpected %v", t)
	case string:
		return locsync.Leaf(t), nil
	default:
		// json.Number, bool or nil
		return locsync.Scalar{Value: t}, nil
	}
}

// Encode implements Codec.
func (JSON) Encode(n *locsync.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, n, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v locsync.Tree, depth int) error {
	switch t := v.(type) {
	case locsync.Leaf:
		return writeJSONScalar(buf, string(t))
	case locsync.Scalar:
		return writeJSONScalar(buf, t.Value)
	case *locsync.Node:
		return writeJSONNode(buf, t, depth)
	default:
		return fmt.Errorf("unexpected value %T", v)
	}
}

func writeJSONNode(buf *bytes.Buffer, n *locsync.Node, depth int) error {
	open, closing := byte('{'), byte('}')
	if n.IsList() {
		open, closing = '[', ']'
	}
	if n.Len() == 0 {
		buf.WriteByte(open)
		buf.WriteByte(closing)
		return nil
	}

	indent := strings.Repeat("  ", depth+1)
	buf.WriteByte(open)

	if n.IsList() {
		for i, item := range n.ListItems() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString("\n" + indent)
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
	} else {
		for i, key := range n.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString("\n" + indent)
			if err := writeJSONScalar(buf, key); err != nil {
				return err
			}
			buf.WriteString(": ")
			child, _ := n.Get(key)
			if err := writeJSON(buf, child, depth+1); err != nil {
				return err
			}
		}
	}

	buf.WriteString("\n" + strings.Repeat("  ", depth))
	buf.WriteByte(closing)
	return nil
}

func writeJSONScalar(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
