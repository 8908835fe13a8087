package config

import (
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
	"github.com/spf13/viper"
)

// parseFile overlays values from the config file named by -c/-config or
// the CONFIG env var. The format follows the extension (.json, .yaml, .yml,
// .toml); keys match the mapstructure tags on Config and durations are
// written as "15m", "168h" and so on. Keys absent from the file leave the
// current values untouched.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)

	// nothing to load
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	return nil
}
