package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nurpe/eforms/internal/config"
	"github.com/nurpe/eforms/internal/logger"
)

var version = "1.0.0"

type cli struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "formsctl",
		Short:         "Maintenance tool for the payment-order forms service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			c.log = logger.WithComponent(logger.NewWithLevel(cfg.Environment, cfg.LogLevel), cmd.Name())
			return nil
		},
	}

	root.AddCommand(newSeedCmd(c), newReportCmd(c), newValidateCmd(c))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "formsctl: %v\n", err)
		os.Exit(1)
	}
}
