package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Versifine/threadboard/server/config"
	"github.com/Versifine/threadboard/server/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "threadboard",
	Short:        "Forum backend: threads, replies, favorites and activity feeds",
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./threadboard.yaml if present)")
}

// loadConfig reads the config and sets up the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
