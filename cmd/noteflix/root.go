package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
)

const defaultConfigPath = "config.yaml"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     logger.Logger
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "noteflix",
		Short:         "Turn lecture documents into narrated videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newAssetsCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		var cfg *config.Config
		var err error
		if path == defaultConfigPath {
			cfg, err = config.LoadOptional(path)
		} else {
			cfg, err = config.Load(path)
		}
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		log, err := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			c.configErr = fmt.Errorf("logging: %w", err)
			return
		}
		c.config = cfg
		c.logger = log
	})
	return c.config, c.configErr
}
