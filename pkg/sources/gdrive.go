package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rubiojr/hayao/pkg/config"
	"github.com/rubiojr/hayao/pkg/core"
)

func init() {
	core.RegisterSourcePrototype("gdrive", &GDriveSource{})
}

// driveDownloadURL is the direct download endpoint for files shared by link.
// confirm=t skips the interstitial shown for files too large to virus scan.
var driveDownloadURL = "https://drive.usercontent.google.com/download"

type GDriveConfig struct {
	FileID    string          `toml:"file_id"`
	Timeout   config.Duration `toml:"timeout"`
	CacheFile string          `toml:"cache_file"`
	Offline   bool            `toml:"offline"`
}

func (c *GDriveConfig) Validate() error {
	if c.FileID == "" {
		return fmt.Errorf("file_id must be specified")
	}
	return nil
}

// GDriveSource downloads a Google Drive file by id.
type GDriveSource struct {
	http *HTTPSource
}

func (s *GDriveSource) Type() string { return "gdrive" }

func (s *GDriveSource) ConfigType() any { return &GDriveConfig{} }

func (s *GDriveSource) Factory(cfg any) (core.Source, error) {
	driveConfig, ok := cfg.(*GDriveConfig)
	if !ok || driveConfig == nil {
		return nil, fmt.Errorf("invalid config type for gdrive source")
	}
	if err := driveConfig.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("id", driveConfig.FileID)
	q.Set("export", "download")
	q.Set("confirm", "t")

	httpSource, err := newHTTPSource(&HTTPConfig{
		URL:       driveDownloadURL + "?" + q.Encode(),
		Timeout:   driveConfig.Timeout,
		CacheFile: driveConfig.CacheFile,
		Offline:   driveConfig.Offline,
	}, "gdrive:"+driveConfig.FileID)
	if err != nil {
		return nil, err
	}
	return &GDriveSource{http: httpSource}, nil
}

func (s *GDriveSource) Fetch(ctx context.Context) (core.Dataset, error) {
	return s.http.Fetch(ctx)
}
