package sources

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rubiojr/hayao/pkg/config"
	"github.com/rubiojr/hayao/pkg/core"
)

const samplePayload = `{
  "Bankruptcy": [
    {"case": "Bankruptcy lease", "year": 2021, "closed": false},
    {"case": "Asset sale", "year": 2019, "closed": true}
  ],
  "Contracts": [
    {"title": "Office lease", "note": null}
  ]
}`

func checkSample(t *testing.T, sheets core.Sheets) {
	t.Helper()
	names := sheets.Names()
	if len(names) != 2 || names[0] != "Bankruptcy" || names[1] != "Contracts" {
		t.Fatalf("unexpected sheets %v", names)
	}
	if sheets.RowCount() != 3 {
		t.Fatalf("expected 3 rows, got %d", sheets.RowCount())
	}
	rows, _ := sheets.Get("Bankruptcy")
	want := core.RowOf("case", "Bankruptcy lease", "year", 2021, "closed", false)
	if !rows[0].Equal(want) {
		t.Errorf("first row = %s, want %s", rows[0], want)
	}
}

func TestDecodeFormats(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write([]byte(samplePayload)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zst := enc.EncodeAll([]byte(samplePayload), nil)
	enc.Close()

	yamlPayload := `
Bankruptcy:
  - case: Bankruptcy lease
    year: 2021
    closed: false
  - case: Asset sale
    year: 2019
    closed: true
Contracts:
  - title: Office lease
    note: null
`

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"json", "data.json", []byte(samplePayload)},
		{"no extension", "https://example.com/download?id=1", []byte(samplePayload)},
		{"gzip", "data.json.gz", gz.Bytes()},
		{"zstd", "data.json.zst", zst},
		{"yaml", "data.yaml", []byte(yamlPayload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheets, err := Decode(tt.file, tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			checkSample(t, sheets)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, data := range []string{`[1,2]`, `{"a": 1}`, `{"a": [1]}`, `not json`} {
		if _, err := Decode("x.json", []byte(data)); err == nil {
			t.Errorf("expected error decoding %q", data)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte(samplePayload))
	if len(a) != 16 {
		t.Fatalf("expected 16 hex digits, got %q", a)
	}
	if a != Fingerprint([]byte(samplePayload)) {
		t.Error("fingerprint is not stable")
	}
	if a == Fingerprint([]byte(samplePayload+" ")) {
		t.Error("different payloads share a fingerprint")
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(samplePayload), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := core.GetGlobalRegistry().CreateSource("file", &FileConfig{Path: path})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	ds, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	checkSample(t, ds.Sheets)
	if ds.Origin != path {
		t.Errorf("unexpected origin %q", ds.Origin)
	}
	if ds.Fingerprint != Fingerprint([]byte(samplePayload)) {
		t.Errorf("unexpected fingerprint %q", ds.Fingerprint)
	}

	if w, ok := src.(core.Watchable); !ok || w.WatchPath() != path {
		t.Errorf("file source should be watchable at %s", path)
	}
}

func TestFileSourceMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := src.Fetch(context.Background())
	var unavailable *core.SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}

func TestFileSourceConfigValidation(t *testing.T) {
	if _, err := (&FileSource{}).Factory(&FileConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := (&FileSource{}).Factory("bogus"); err == nil {
		t.Error("expected error for wrong config type")
	}
}

func TestHTTPSourceCachesDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Errorf("missing user agent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	cache := filepath.Join(t.TempDir(), "cache", config.DefaultDownloadFile)
	src, err := (&HTTPSource{}).Factory(&HTTPConfig{URL: server.URL, CacheFile: cache})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	ds, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	checkSample(t, ds.Sheets)

	cached, err := os.ReadFile(cache)
	if err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	if string(cached) != samplePayload {
		t.Error("cache content differs from download")
	}

	// Offline mode must not touch the network.
	server.Close()
	offline, err := (&HTTPSource{}).Factory(&HTTPConfig{URL: server.URL, CacheFile: cache, Offline: true})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	ds2, err := offline.Fetch(context.Background())
	if err != nil {
		t.Fatalf("offline Fetch: %v", err)
	}
	if ds2.Fingerprint != ds.Fingerprint {
		t.Error("offline dataset differs from the downloaded one")
	}
}

func TestHTTPSourceFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}},
		{"html page", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
		}},
		{"bad payload", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`["not", "sheets"]`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cache := filepath.Join(t.TempDir(), "download.json")
			src, err := (&HTTPSource{}).Factory(&HTTPConfig{URL: server.URL, CacheFile: cache})
			if err != nil {
				t.Fatalf("Factory: %v", err)
			}
			_, err = src.Fetch(context.Background())
			var unavailable *core.SourceUnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("expected SourceUnavailableError, got %v", err)
			}
			if _, err := os.Stat(cache); !os.IsNotExist(err) {
				t.Error("failed download must not be cached")
			}
		})
	}
}

func TestHTTPSourceOfflineWithoutCache(t *testing.T) {
	src, err := (&HTTPSource{}).Factory(&HTTPConfig{URL: "http://127.0.0.1:1", Offline: true})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("expected error without cache file")
	}
}

func TestHTTPSourceTimeoutDefault(t *testing.T) {
	cfg := &HTTPConfig{URL: "http://example.com"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout.Duration != defaultHTTPTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout.Duration)
	}

	cfg = &HTTPConfig{URL: "http://example.com", Timeout: config.Duration{Duration: time.Second}}
	_ = cfg.Validate()
	if cfg.Timeout.Duration != time.Second {
		t.Errorf("explicit timeout overwritten: %v", cfg.Timeout.Duration)
	}
}

func TestGDriveSource(t *testing.T) {
	var gotID, gotConfirm string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("id")
		gotConfirm = r.URL.Query().Get("confirm")
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	old := driveDownloadURL
	driveDownloadURL = server.URL + "/download"
	defer func() { driveDownloadURL = old }()

	src, err := core.GetGlobalRegistry().CreateSource("gdrive", &GDriveConfig{FileID: "abc123"})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	ds, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	checkSample(t, ds.Sheets)
	if gotID != "abc123" || gotConfirm != "t" {
		t.Errorf("unexpected query id=%q confirm=%q", gotID, gotConfirm)
	}
	if ds.Origin != "gdrive:abc123" {
		t.Errorf("unexpected origin %q", ds.Origin)
	}

	if _, err := (&GDriveSource{}).Factory(&GDriveConfig{}); err == nil {
		t.Error("expected error for missing file id")
	}
}

func TestIsRemote(t *testing.T) {
	if IsRemote("file") || !IsRemote("http") || !IsRemote("gdrive") {
		t.Error("IsRemote misclassifies source types")
	}
}
