package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rubiojr/hayao/pkg/config"
	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/index"
	"github.com/rubiojr/hayao/pkg/query"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/warehouse"
)

func TestCreateSourceFromConfig(t *testing.T) {
	cfg, path := testConfig(t, testData)

	src, err := createSourceFromConfig(cfg, false)
	if err != nil {
		t.Fatalf("createSourceFromConfig: %v", err)
	}
	if src.Type() != "file" {
		t.Errorf("expected file source, got %s", src.Type())
	}
	w, ok := src.(core.Watchable)
	if !ok {
		t.Fatal("file source should be watchable")
	}
	if w.WatchPath() != path {
		t.Errorf("expected watch path %s, got %s", path, w.WatchPath())
	}
}

func TestCreateSourceFromConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		source config.SourceInfo
	}{
		{"unknown type", config.SourceInfo{Type: "ftp"}},
		{"file without path", config.SourceInfo{Type: "file", Config: map[string]any{}}},
		{"http without url", config.SourceInfo{Type: "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{StorageDir: t.TempDir(), Source: tt.source}
			if _, err := createSourceFromConfig(cfg, false); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithCache(t *testing.T) {
	raw := map[string]any{"url": "https://example.com/db.json"}
	got := withCache(raw, "/tmp/cache.json", true)

	if got["url"] != "https://example.com/db.json" {
		t.Errorf("url lost: %v", got)
	}
	if got["cache_file"] != "/tmp/cache.json" {
		t.Errorf("expected cache file, got %v", got["cache_file"])
	}
	if got["offline"] != true {
		t.Errorf("expected offline, got %v", got["offline"])
	}
	if _, ok := raw["cache_file"]; ok {
		t.Error("raw config must not be modified")
	}

	explicit := withCache(map[string]any{"cache_file": "/data/mine.json"}, "/tmp/cache.json", false)
	if explicit["cache_file"] != "/data/mine.json" {
		t.Errorf("explicit cache file should win, got %v", explicit["cache_file"])
	}
	if _, ok := explicit["offline"]; ok {
		t.Error("offline should only be set when requested")
	}
}

func TestOfflineRemoteSourceReadsDownloadCache(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		StorageDir: dir,
		IndexName:  "test_index",
		Source: config.SourceInfo{
			Type:   "http",
			Config: map[string]any{"url": "http://127.0.0.1:1/unreachable.json"},
		},
	}
	if err := os.WriteFile(cfg.DownloadPath(), []byte(testData), 0644); err != nil {
		t.Fatal(err)
	}

	wh, err := openWarehouse(cfg, true)
	if err != nil {
		t.Fatalf("openWarehouse: %v", err)
	}
	defer wh.Close()

	hits, err := wh.Search(context.Background(), query.MustParse("Bankruptcy"), 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestRemoteSourceWithoutCacheIsUnavailable(t *testing.T) {
	cfg := &config.Config{
		StorageDir: t.TempDir(),
		IndexName:  "test_index",
		Source: config.SourceInfo{
			Type:   "gdrive",
			Config: map[string]any{"file_id": "abc"},
		},
	}
	wh, err := openWarehouse(cfg, true)
	if err != nil {
		t.Fatalf("openWarehouse: %v", err)
	}
	defer wh.Close()

	err = wh.EnsureReady(context.Background())
	var unavailable *core.SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
	if wh.State() != warehouse.Absent {
		t.Errorf("expected absent, got %s", wh.State())
	}
}

func TestRunSearch(t *testing.T) {
	cfg, _ := testConfig(t, testData)
	wh, err := openWarehouse(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer wh.Close()
	svc := search.NewSearchService(wh, highlight.Plain, cfg.MaxResults)

	tests := []struct {
		name    string
		query   string
		want    []string
		wantErr bool
	}{
		{"matches", "Bankruptcy", []string{"2 results", "Leases", "<mark>Bankruptcy</mark> lease", "title:"}, false},
		{"and", "Bankruptcy filing", []string{"1 results", "Contracts"}, false},
		{"nothing found", "zzzz", []string{"No results found"}, false},
		{"empty", "  　 ", []string{"Nothing to search for"}, false},
		{"invalid", "lease*", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runSearch(context.Background(), &buf, svc, tt.query, 0)
			if tt.wantErr {
				var parseErr *query.ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("runSearch: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestIndexStatus(t *testing.T) {
	cfg, _ := testConfig(t, testData)
	store := index.NewStore(cfg.StorageDir, cfg.IndexName)

	wh, err := openWarehouse(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	st, err := indexStatus(wh, store)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != warehouse.Absent.String() {
		t.Errorf("expected absent before build, got %s", st.State)
	}
	if store.Exists() {
		t.Error("status must not build the index")
	}

	if err := wh.EnsureReady(context.Background()); err != nil {
		t.Fatal(err)
	}
	wh.Close()

	other, err := openWarehouse(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	st, err = indexStatus(other, store)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != warehouse.Ready.String() {
		t.Errorf("expected ready, got %s", st.State)
	}
	if st.Meta.Documents != 3 || st.Meta.Sheets != 2 {
		t.Errorf("unexpected meta %+v", st.Meta)
	}

	var buf bytes.Buffer
	formatStatus(&buf, st)
	if !strings.Contains(buf.String(), "Documents:") {
		t.Errorf("unexpected status output:\n%s", buf.String())
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hayao", "config.toml")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if err := initConfig(path, false); err != nil {
		t.Fatalf("initConfig: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}
	if cfg.Source.Type != "file" {
		t.Errorf("expected file source, got %s", cfg.Source.Type)
	}

	if err := initConfig(path, false); err == nil {
		t.Error("expected error when config exists")
	}
	if err := initConfig(path, true); err != nil {
		t.Errorf("force should overwrite: %v", err)
	}
}
