package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clsprm/app"
	"github.com/kilianp07/clsprm/config"
	"github.com/kilianp07/clsprm/core/monitoring"
	"github.com/kilianp07/clsprm/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "clsprm",
	Short:         "Capacitated lot-sizing with remanufacturing",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withService runs fn with a service built from cfg and an interruptible
// context, closing the service afterwards.
func withService(cfg *config.Config, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	defer monitoring.Recover()
	return fn(ctx, svc)
}
