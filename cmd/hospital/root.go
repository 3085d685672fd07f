package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/hospital/pkg/common/config"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hospital",
	Short: "Hospital records for doctors, patients and prescriptions",
	Long: `hospital serves a small web application for keeping doctor, patient and
prescription records in a relational store.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default: $"+config.ConfigFileEnv+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFile)
	return nil
}
