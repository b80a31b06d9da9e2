// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tiddly-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tiddly-engine/internal/logging"
	"github.com/pdiddy/tiddly-engine/internal/metrics"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state built by the root pre-run hook.
var (
	log      *logrus.Logger
	recorder *metrics.Recorder
)

// rootCmd is the base command for the tiddly-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "tiddly-engine",
	Short: "Extract, export and search tiddlers from TiddlyWiki files",
	Long: `tiddly-engine reads the store area of an exported single-file TiddlyWiki
and turns its tiddlers into data: listed, shown, exported one file per tiddler
or compiled into one document, and indexed for full-text search.

Wikis may be local files, doublestar globs such as "wikis/**/*.html", or
http(s) URLs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err = logging.New(logging.FromConfig(cfg.Log, os.Stderr))
		if err != nil {
			return err
		}
		recorder = metrics.New()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return writeMetrics()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./tiddly-engine.yaml or ~/.config/tiddly-engine/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("metrics-file", "", "write Prometheus counters to this file on exit")
	pf.Duration("timeout", 0, "HTTP timeout when a wiki is a URL (default from config, 30s)")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("metrics_file", pf.Lookup("metrics-file"))
	viper.BindPFlag("fetch.timeout", pf.Lookup("timeout"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tiddly-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tiddly-engine"))
		}
	}

	viper.SetEnvPrefix("TIDDLY_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func writeMetrics() error {
	if recorder == nil {
		return nil
	}
	return recorder.WriteFile(viper.GetString("metrics_file"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		writeMetrics()
		os.Exit(1)
	}
}
