package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/log"
)

func init() {
	core.RegisterSourcePrototype("file", &FileSource{})
}

type FileConfig struct {
	Path string `toml:"path"`
}

func (c *FileConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path must be specified")
	}
	return nil
}

// FileSource reads the payload from the local filesystem.
type FileSource struct {
	config *FileConfig
}

func NewFileSource(path string) *FileSource {
	return &FileSource{config: &FileConfig{Path: path}}
}

func (s *FileSource) Type() string { return "file" }

func (s *FileSource) ConfigType() any { return &FileConfig{} }

func (s *FileSource) Factory(config any) (core.Source, error) {
	cfg, ok := config.(*FileConfig)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("invalid config type for file source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FileSource{config: cfg}, nil
}

func (s *FileSource) WatchPath() string {
	abs, err := filepath.Abs(s.config.Path)
	if err != nil {
		return s.config.Path
	}
	return abs
}

func (s *FileSource) Fetch(ctx context.Context) (core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return core.Dataset{}, core.Unavailable(s.config.Path, err)
	}

	data, err := os.ReadFile(s.config.Path)
	if err != nil {
		return core.Dataset{}, core.Unavailable(s.config.Path, err)
	}

	sheets, err := Decode(s.config.Path, data)
	if err != nil {
		return core.Dataset{}, core.Unavailable(s.config.Path, err)
	}

	log.ForService("source").Infof("read %d sheets, %d rows from %s", len(sheets), sheets.RowCount(), s.config.Path)

	return core.Dataset{
		Sheets:      sheets,
		Origin:      s.config.Path,
		Fingerprint: Fingerprint(data),
		FetchedAt:   time.Now(),
	}, nil
}
