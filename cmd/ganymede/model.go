package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/datamodel"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/source"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// Shared flags for commands that compile a data model.
var modelFlags struct {
	library    string
	moduleDirs []string
}

// addModelFlags registers the model selection flags on a command.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&modelFlags.library, "library", "l", "", "YANG library document (overrides config)")
	cmd.Flags().StringArrayVarP(&modelFlags.moduleDirs, "module-dir", "d", nil, "module search directory, repeatable (overrides config)")
}

// loadRuntimeConfig loads the configuration and folds the command line
// flags into it. An explicitly set --config must exist; the default
// config file is optional so the tool runs on flags alone.
func loadRuntimeConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rootCmd.PersistentFlags().Changed("config") {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	} else {
		cfg, err = config.LoadConfigIfPresent(cfgFile)
	}
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	if modelFlags.library != "" {
		cfg.Modules.Library = modelFlags.library
	}
	if len(modelFlags.moduleDirs) > 0 {
		cfg.Modules.SearchPaths = modelFlags.moduleDirs
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Logs go to stderr so stdout stays reserved for command output.
	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return cfg, nil
}

// loadLibrary reads and parses the YANG library document named by the
// configuration and folds config-enabled features into it.
func loadLibrary(cfg *config.Config) (*registry.Library, error) {
	data, err := os.ReadFile(cfg.Modules.Library)
	if err != nil {
		return nil, fmt.Errorf("failed to read library document %q: %w", cfg.Modules.Library, err)
	}
	lib, err := registry.ParseLibrary(data)
	if err != nil {
		return nil, err
	}
	enableFeatures(lib, cfg.Modules.Features)
	return lib, nil
}

// buildModel compiles the data model named by the configuration.
func buildModel(cfg *config.Config) (*datamodel.DataModel, error) {
	lib, err := loadLibrary(cfg)
	if err != nil {
		return nil, err
	}
	src := source.NewDirSource(cfg.Modules.SearchPaths, slog.Default())
	return datamodel.NewFromLibrary(lib, source.Loader(src))
}

// enableFeatures merges config-enabled features into the library
// entries. Features already listed by the library stay.
func enableFeatures(lib *registry.Library, features map[string][]string) {
	if len(features) == 0 {
		return
	}
	for i := range lib.Modules {
		for _, f := range features[lib.Modules[i].Name] {
			if !containsFeature(lib.Modules[i].Features, f) {
				lib.Modules[i].Features = append(lib.Modules[i].Features, f)
			}
		}
	}
}

func containsFeature(list []string, name string) bool {
	for _, f := range list {
		if f == name {
			return true
		}
	}
	return false
}
