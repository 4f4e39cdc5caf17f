package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Sheet is a named group of rows.
type Sheet struct {
	Name string
	Rows []Row
}

// Sheets is the record source payload: sheet name → rows. Sheets keep the
// order in which they appear in the source; a repeated sheet name replaces
// the rows of the earlier one.
type Sheets []Sheet

// Get returns the rows of the named sheet.
func (s Sheets) Get(name string) ([]Row, bool) {
	for _, sh := range s {
		if sh.Name == name {
			return sh.Rows, true
		}
	}
	return nil, false
}

// Names returns sheet names in source order.
func (s Sheets) Names() []string {
	names := make([]string, len(s))
	for i, sh := range s {
		names[i] = sh.Name
	}
	return names
}

// RowCount returns the number of rows across all sheets.
func (s Sheets) RowCount() int {
	n := 0
	for _, sh := range s {
		n += len(sh.Rows)
	}
	return n
}

func (s Sheets) set(name string, rows []Row) Sheets {
	for i := range s {
		if s[i].Name == name {
			s[i].Rows = rows
			return s
		}
	}
	return append(s, Sheet{Name: name, Rows: rows})
}

// MarshalJSON writes the interchange format: a top-level object keyed by
// sheet name whose values are arrays of flat objects.
func (s Sheets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sh := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(sh.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteString(":[")
		for j, row := range sh.Rows {
			if j > 0 {
				buf.WriteByte(',')
			}
			data, err := row.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: %w", sh.Name, j, err)
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the interchange format keeping sheet and column order.
func (s *Sheets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("top-level value must be an object: %w", err)
	}

	sheets := Sheets{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var rows []Row
		if err := dec.Decode(&rows); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = sheets.set(name, rows)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*s = sheets
	return nil
}

// UnmarshalYAML reads the same layout from a YAML mapping.
func (s *Sheets) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: top-level value must be a mapping", node.Line)
	}
	sheets := Sheets{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var rows []Row
		if err := node.Content[i+1].Decode(&rows); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = sheets.set(name, rows)
	}
	*s = sheets
	return nil
}
