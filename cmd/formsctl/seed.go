package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nurpe/eforms/internal/app"
)

func newSeedCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the upload directory and write demo payment orders into an empty store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.EnsureUploadDir(c.cfg.Upload.Dir); err != nil {
				return err
			}

			store, closeStore, err := app.NewStore(c.cfg, c.log)
			if err != nil {
				return err
			}
			if closeStore != nil {
				defer closeStore()
			}

			wrote, err := app.Seed(cmd.Context(), store, time.Now(), force)
			if err != nil {
				return err
			}
			if !wrote {
				c.log.Info().Msg("store already has data, nothing written (use --force to replace)")
				return nil
			}
			c.log.Info().Int("records", len(app.DemoRecords(time.Now()))).Msg("demo data written")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing records")
	return cmd
}
