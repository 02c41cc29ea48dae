// Package main provides the CLI entry point for CaptainClaw.
package main

import (
	"fmt"
	"os"

	"github.com/liliang-cn/captainclaw/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information (set at build time)
var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "captainclaw",
		Short:         "CaptainClaw - project chat with document context",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	load := func() (*config.Config, *zap.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		logger, err := newLogger(cfg.Log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create logger: %w", err)
		}
		return cfg, logger, nil
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newInitDBCmd(load),
		newExtractCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, *zap.Logger, error)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
