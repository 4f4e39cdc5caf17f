// Package sources provides the record sources: a local file, any HTTP(S)
// URL and a Google Drive file shared by link. All of them deliver the same
// interchange format, a JSON object mapping sheet names to arrays of flat
// row objects. YAML files with the same layout and gzip/zstd compressed
// payloads are accepted as well.
package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/xxHash/xxHash64"
	"github.com/rubiojr/hayao/pkg/core"
	"gopkg.in/yaml.v3"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Decode turns a raw payload into sheets. name is the path or URL the
// payload came from; a .yaml/.yml extension selects YAML, anything else is
// read as JSON. Compression is detected from the payload's magic bytes.
func Decode(name string, data []byte) (core.Sheets, error) {
	plain, err := decompress(data)
	if err != nil {
		return nil, err
	}

	var sheets core.Sheets
	switch format(name) {
	case "yaml":
		if err := yaml.Unmarshal(plain, &sheets); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(plain, &sheets); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	}
	return sheets, nil
}

// Fingerprint returns the xxHash64 of the payload as 16 hex digits.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxHash64.Checksum(data, 0))
}

func decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening gzip payload: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("decompressing gzip payload: %w", err)
		}
		return out, nil
	case bytes.HasPrefix(data, zstdMagic):
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing zstd payload: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

func format(name string) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && u.Path != "" {
		name = u.Path
	}
	name = strings.ToLower(name)
	for _, ext := range []string{".gz", ".zst", ".zstd"} {
		name = strings.TrimSuffix(name, ext)
	}
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// IsRemote reports whether sources of sourceType download their payload and
// therefore use the download cache.
func IsRemote(sourceType string) bool {
	return sourceType == "http" || sourceType == "gdrive"
}
