package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raysh454/qadetector/internal/app"
	"github.com/raysh454/qadetector/internal/logging"
)

var (
	configPath string
	verbose    bool
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "qadetector",
		Short: "Page quality scans for registered websites",
		Long: `qadetector checks pages of registered domains for accessibility problems,
spelling mistakes and HTML conformance, and keeps a history of every scan.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search ., ./config, /etc/qadetector, $HOME/.qadetector)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newScanCommand())
	rootCmd.AddCommand(newProjectCommand())
	rootCmd.AddCommand(newScansCommand())
	rootCmd.AddCommand(newMigrateCommand())
	return rootCmd.ExecuteContext(context.Background())
}

// loadConfig reads the config and builds the process logger. --verbose
// wins over the configured level.
func loadConfig() (*app.Config, *viper.Viper, *logging.LogrusLogger, error) {
	cfg, v, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger := logging.NewLogrusLogger(cfg.Log)
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", logging.Field{Key: "path", Value: used})
	}
	return cfg, v, logger, nil
}

// openApp is loadConfig plus a fully wired Application.
func openApp(ctx context.Context) (*app.Application, error) {
	cfg, _, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
