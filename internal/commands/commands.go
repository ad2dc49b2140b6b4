// Package commands holds the sam command line.
package commands

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bassista/go_sam/internal/app"
	"github.com/bassista/go_sam/internal/config"
	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

// New returns the root command. Without a subcommand it serves.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sam",
		Short:         "Headless achievement manager: app catalog, icon cache and achievement editor.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addApps(topLevel)
}

// bootstrap loads the configuration and builds an App that is not started yet.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logLevel, err := logger.ApplyLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', keeping '%s': %v", cfg.Misc.LogLevel, logLevel, err)
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logLevel.String())
	gin.SetMode(cfg.Misc.GinMode)

	client, libraryRepo, err := gameclient.NewClientFromConfig(ctx, cfg.Client)
	if err != nil {
		return nil, fmt.Errorf("cannot init game client: %w", err)
	}
	// a nil *JSONFile must not become a non-nil interface
	var library repository.Saver[repository.LibraryDocument]
	if libraryRepo != nil {
		library = libraryRepo
	}

	a, err := app.New(cfg, client, library, view.NewMemoryView())
	if err != nil {
		return nil, fmt.Errorf("cannot init app: %w", err)
	}
	return a, nil
}
