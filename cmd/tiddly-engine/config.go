// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tiddly-engine/pkg/types"
)

// setDefaults registers every config key so environment variables and
// config files can override any of them.
func setDefaults() {
	d := types.DefaultPipelineConfig()
	viper.SetDefault("fetch.timeout", d.Fetch.Timeout)
	viper.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	viper.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)
	viper.SetDefault("conversion.backend", string(d.Conversion.Backend))
	viper.SetDefault("conversion.pandoc_image", d.Conversion.PandocImage)
	viper.SetDefault("conversion.pandoc_args", d.Conversion.PandocArgs)
	viper.SetDefault("export.output_dir", d.Export.OutputDir)
	viper.SetDefault("export.format", d.Export.Format)
	viper.SetDefault("export.sort_by", string(d.Export.SortBy))
	viper.SetDefault("export.workers", d.Export.Workers)
	viper.SetDefault("index.index_dir", d.Index.IndexDir)
	viper.SetDefault("index.max_results", d.Index.MaxResults)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig merges defaults, config file, environment and bound flags into
// a PipelineConfig. The merged settings are decoded through their yaml tags.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return cfg, fmt.Errorf("encoding settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding settings: %w", err)
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	return cfg, nil
}

// bindFlags binds command flags to config keys. Flags shared by several
// commands are bound in PreRunE so the running command owns the key.
func bindFlags(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		for flag, key := range keys {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				return fmt.Errorf("flag --%s not defined on %s", flag, cmd.Name())
			}
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", flag, err)
			}
		}
		return nil
	}
}
