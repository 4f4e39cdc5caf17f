package index

import (
	"fmt"
	"strconv"
	"time"
)

const (
	metaSchemaVersion = "schema_version"
	metaComplete      = "complete"
	metaBuiltAt       = "built_at"
	metaDocuments     = "documents"
	metaSheets        = "sheets"
	metaFingerprint   = "fingerprint"
	metaSource        = "source"
)

// Meta describes a built index.
type Meta struct {
	BuiltAt   time.Time `json:"built_at"`
	Documents int       `json:"documents"`
	Sheets    int       `json:"sheets"`
	// Fingerprint is the content hash of the payload the index was built
	// from.
	Fingerprint string `json:"fingerprint,omitempty"`
	Source      string `json:"source,omitempty"`
}

func (m Meta) encode() map[string]string {
	return map[string]string{
		metaSchemaVersion: strconv.Itoa(SchemaVersion),
		metaComplete:      "1",
		metaBuiltAt:       m.BuiltAt.UTC().Format(time.RFC3339Nano),
		metaDocuments:     strconv.Itoa(m.Documents),
		metaSheets:        strconv.Itoa(m.Sheets),
		metaFingerprint:   m.Fingerprint,
		metaSource:        m.Source,
	}
}

func decodeMeta(values map[string]string) (Meta, error) {
	var (
		m   Meta
		err error
	)
	if m.BuiltAt, err = time.Parse(time.RFC3339Nano, values[metaBuiltAt]); err != nil {
		return Meta{}, fmt.Errorf("invalid %s: %w", metaBuiltAt, err)
	}
	if m.Documents, err = strconv.Atoi(values[metaDocuments]); err != nil {
		return Meta{}, fmt.Errorf("invalid %s: %w", metaDocuments, err)
	}
	if m.Sheets, err = strconv.Atoi(values[metaSheets]); err != nil {
		return Meta{}, fmt.Errorf("invalid %s: %w", metaSheets, err)
	}
	m.Fingerprint = values[metaFingerprint]
	m.Source = values[metaSource]
	return m, nil
}
