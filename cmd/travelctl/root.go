package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/config"
	"github.com/garyjia/travel-approval/internal/container"
	"github.com/garyjia/travel-approval/pkg/utils"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "travelctl",
		Short:         "Operator tools for the travel approval service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "configs/config.yaml", "Path to the YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(
		newMigrateCmd(flags),
		newTimelineCmd(flags),
		newRedispatchCmd(flags),
		newSendTestEmailCmd(flags),
		newHashPasswordCmd(),
		newUserCmd(flags),
	)
	return cmd
}

// bootstrap loads configuration and starts a container for one command
func bootstrap(ctx context.Context, flags *globalFlags) (*container.Container, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewCLILogger(flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func closeContainer(c *container.Container) {
	if err := c.Close(); err != nil {
		c.Logger().Warn("Failed to close container", zap.Error(err))
	}
	_ = c.Logger().Sync()
}
