package core

import (
	"context"
	"time"
)

// Dataset is what a Source hands to the index builder.
type Dataset struct {
	Sheets Sheets
	// Origin describes where the data came from (path or URL).
	Origin string
	// Fingerprint is a content hash of the raw payload.
	Fingerprint string
	FetchedAt   time.Time
}

// Source supplies the sheet → rows mapping on demand.
//
// Sources register a prototype during init() and are instantiated from
// configuration through the registry:
//
//	func init() {
//		core.RegisterSourcePrototype("file", &FileSource{})
//	}
//
// Fetch must return a *SourceUnavailableError when the data cannot be
// obtained or decoded.
type Source interface {
	// Type is the registry key (e.g. "file", "http", "gdrive").
	Type() string

	// ConfigType returns a pointer to an empty configuration struct that
	// raw configuration is decoded into.
	ConfigType() any

	// Factory builds a ready-to-use source from a config produced by
	// ConfigType (nil means defaults).
	Factory(config any) (Source, error)

	// Fetch retrieves the full dataset.
	Fetch(ctx context.Context) (Dataset, error)
}

// Watchable is implemented by sources backed by a local file that can be
// watched for changes.
type Watchable interface {
	WatchPath() string
}
