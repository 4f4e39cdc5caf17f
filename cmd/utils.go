package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/hayao/pkg/config"
	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/index"
	"github.com/rubiojr/hayao/pkg/realtime"
	"github.com/rubiojr/hayao/pkg/sources"
	"github.com/rubiojr/hayao/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the file named by --config and applies environment
// overrides.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// createSourceFromConfig builds the configured record source. Remote
// sources always cache their download under the storage directory; offline
// makes them read that cache instead of the network.
func createSourceFromConfig(cfg *config.Config, offline bool) (core.Source, error) {
	registry := core.GetGlobalRegistry()

	prototype, err := registry.Prototype(cfg.Source.Type)
	if err != nil {
		return nil, err
	}

	raw := cfg.Source.Config
	if sources.IsRemote(cfg.Source.Type) {
		raw = withCache(raw, cfg.DownloadPath(), offline)
	}

	srcConfig, err := convertRawConfigToType(prototype, raw)
	if err != nil {
		return nil, fmt.Errorf("converting config for %s source: %w", cfg.Source.Type, err)
	}

	src, err := registry.CreateSource(cfg.Source.Type, srcConfig)
	if err != nil {
		return nil, fmt.Errorf("creating %s source: %w", cfg.Source.Type, err)
	}
	return src, nil
}

// withCache copies the raw source table adding the download cache settings.
// An explicit cache_file in the configuration wins.
func withCache(raw any, cacheFile string, offline bool) map[string]any {
	out := map[string]any{}
	if m, ok := raw.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	if _, ok := out["cache_file"]; !ok {
		out["cache_file"] = cacheFile
	}
	if offline {
		out["offline"] = true
	}
	return out
}

// convertRawConfigToType converts raw config to the source's expected type
func convertRawConfigToType(src core.Source, rawConfig any) (any, error) {
	configType := src.ConfigType()

	if rawConfig == nil {
		return configType, nil
	}

	// Marshal and unmarshal to convert between types
	configData, err := toml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}

	if err := toml.Unmarshal(configData, configType); err != nil {
		return nil, fmt.Errorf("unmarshaling source config: %w", err)
	}

	return configType, nil
}

// openWarehouse wires the configured source and the on-disk index store
// into a warehouse. The caller must Close it.
func openWarehouse(cfg *config.Config, offline bool) (*warehouse.Warehouse, error) {
	src, err := createSourceFromConfig(cfg, offline)
	if err != nil {
		return nil, err
	}
	return newWarehouse(cfg, src), nil
}

func newWarehouse(cfg *config.Config, src core.Source) *warehouse.Warehouse {
	store := index.NewStore(cfg.StorageDir, cfg.IndexName)
	return warehouse.New(store, src, realtime.NewHub(0))
}

// closeWarehouse closes wh and reports a failure as a warning.
func closeWarehouse(wh *warehouse.Warehouse) {
	if err := wh.Close(); err != nil {
		fmt.Printf("Warning: failed to close index: %v\n", err)
	}
}
