package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	// KindRaw holds a nested array or object kept as compact JSON. Rows are
	// expected to be flat; nested values are carried rather than rejected.
	KindRaw
)

// Value is a single cell of a Row. The zero Value is null.
type Value struct {
	kind Kind
	text string
}

// String builds a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number builds a number value from its literal text (e.g. "42", "1.5").
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// Bool builds a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, text: "true"}
	}
	return Value{kind: KindBool, text: "false"}
}

// Null is the null value.
func Null() Value { return Value{} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// String returns the canonical text of the value: strings verbatim, numbers
// and booleans as their JSON literal, null as the empty string and nested
// values as compact JSON.
func (v Value) String() string {
	return v.text
}

// MarshalJSON reproduces the value as it appeared in the source.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.text)
	default:
		return []byte(v.text), nil
	}
}

// UnmarshalJSON decodes any JSON value into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case 'n':
		*v = Null()
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*v = Value{kind: KindRaw, text: buf.String()}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Number(n.String())
	}
	return nil
}

// UnmarshalYAML decodes a YAML node into v.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		var anything any
		if err := node.Decode(&anything); err != nil {
			return err
		}
		raw, err := json.Marshal(anything)
		if err != nil {
			return fmt.Errorf("line %d: nested value cannot be represented as JSON: %w", node.Line, err)
		}
		*v = Value{kind: KindRaw, text: string(raw)}
		return nil
	}

	switch node.ShortTag() {
	case "!!null":
		*v = Null()
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case "!!int", "!!float":
		*v = Number(node.Value)
	default:
		*v = String(node.Value)
	}
	return nil
}

// Field is one column of a Row.
type Field struct {
	Key   string
	Value Value
}

// Row is an ordered column → value mapping. Column order is the order in
// which keys appear in the source and is kept for flattening and display.
type Row []Field

// RowOf builds a Row from alternating key/value pairs. Values may be Value,
// string, bool, nil or any integer/float type.
func RowOf(pairs ...any) Row {
	if len(pairs)%2 != 0 {
		panic("core.RowOf: odd number of arguments")
	}
	row := make(Row, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		row = row.Set(pairs[i].(string), valueOf(pairs[i+1]))
	}
	return row
}

func valueOf(x any) Value {
	switch t := x.(type) {
	case Value:
		return t
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Number(fmt.Sprintf("%d", t))
	case float32, float64:
		return Number(fmt.Sprintf("%v", t))
	default:
		return String(fmt.Sprint(t))
	}
}

// Get returns the value for key.
func (r Row) Get(key string) (Value, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value of an existing key in place or appends a new column.
// A repeated key keeps its first position and its last value.
func (r Row) Set(key string, v Value) Row {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = v
			return r
		}
	}
	return append(r, Field{Key: key, Value: v})
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Equal reports whether both rows have the same columns, in the same order,
// with the same values.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the row as its JSON object.
func (r Row) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid row: %v>", err)
	}
	return string(data)
}

// MarshalJSON writes the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("row must be a JSON object: %w", err)
	}

	row := Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		row = row.Set(key, v)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*r = row
	return nil
}

// UnmarshalYAML reads a YAML mapping keeping key order.
func (r *Row) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: row must be a mapping", node.Line)
	}
	row := Row{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var v Value
		if err := v.UnmarshalYAML(node.Content[i+1]); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		row = row.Set(key, v)
	}
	*r = row
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// flattenValues joins the canonical text of every value with a single space.
func flattenValues(r Row) string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.Value.String()
	}
	return strings.Join(parts, " ")
}
