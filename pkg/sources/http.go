package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/hayao/pkg/config"
	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/log"
	"github.com/rubiojr/hayao/pkg/version"
)

func init() {
	core.RegisterSourcePrototype("http", &HTTPSource{})
}

const defaultHTTPTimeout = 2 * time.Minute

type HTTPConfig struct {
	URL     string          `toml:"url"`
	Timeout config.Duration `toml:"timeout"`
	// CacheFile receives a copy of every successful download.
	CacheFile string `toml:"cache_file"`
	// Offline reads CacheFile instead of downloading.
	Offline bool `toml:"offline"`
}

func (c *HTTPConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url must be specified")
	}
	if c.Timeout.Duration <= 0 {
		c.Timeout = config.Duration{Duration: defaultHTTPTimeout}
	}
	return nil
}

// HTTPSource downloads the payload with a GET request.
type HTTPSource struct {
	config *HTTPConfig
	client *http.Client
	// name identifies the source in errors and logs; it is the URL unless a
	// wrapping source (gdrive) sets something more readable.
	name string
}

func (s *HTTPSource) Type() string { return "http" }

func (s *HTTPSource) ConfigType() any { return &HTTPConfig{} }

func (s *HTTPSource) Factory(cfg any) (core.Source, error) {
	httpConfig, ok := cfg.(*HTTPConfig)
	if !ok || httpConfig == nil {
		return nil, fmt.Errorf("invalid config type for http source")
	}
	return newHTTPSource(httpConfig, httpConfig.URL)
}

func newHTTPSource(cfg *HTTPConfig, name string) (*HTTPSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HTTPSource{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout.Duration},
		name:   name,
	}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context) (core.Dataset, error) {
	logger := log.ForService("source")

	var (
		data []byte
		err  error
	)
	if s.config.Offline {
		if s.config.CacheFile == "" {
			return core.Dataset{}, core.Unavailable(s.name, fmt.Errorf("offline mode needs a cache file"))
		}
		logger.Infof("offline: reading cached download %s", s.config.CacheFile)
		data, err = os.ReadFile(s.config.CacheFile)
	} else {
		logger.Infof("downloading %s", s.name)
		data, err = s.download(ctx)
	}
	if err != nil {
		return core.Dataset{}, core.Unavailable(s.name, err)
	}

	sheets, err := Decode(s.config.URL, data)
	if err != nil {
		return core.Dataset{}, core.Unavailable(s.name, err)
	}

	if !s.config.Offline && s.config.CacheFile != "" {
		if err := writeFileAtomic(s.config.CacheFile, data); err != nil {
			logger.Warnf("caching download to %s: %v", s.config.CacheFile, err)
		}
	}

	logger.Infof("fetched %d sheets, %d rows (%d bytes) from %s", len(sheets), sheets.RowCount(), len(data), s.name)

	return core.Dataset{
		Sheets:      sheets,
		Origin:      s.name,
		Fingerprint: Fingerprint(data),
		FetchedAt:   time.Now(),
	}, nil
}

func (s *HTTPSource) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.config.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "hayao/"+version.Version)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.ForService("source").Warnf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Share links that are not public (or hit a quota page) answer 200 with
	// an HTML page instead of the file.
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "text/html" &&
		bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return nil, fmt.Errorf("received an HTML page instead of data (is the file shared publicly?)")
	}

	return data, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
