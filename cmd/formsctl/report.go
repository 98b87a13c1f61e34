package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nurpe/eforms/internal/app"
	"github.com/nurpe/eforms/internal/service"
)

func newReportCmd(c *cli) *cobra.Command {
	var (
		from   string
		to     string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the statistics report as pdf, xlsx or json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := app.Build(c.cfg, c.log)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()
			var result *service.FileResult
			switch strings.ToLower(format) {
			case "pdf":
				result, err = deps.Forms.ReportPDF(ctx, from, to)
			case "xlsx":
				result, err = deps.Forms.ReportExcel(ctx, from, to)
			case "json":
				bundle, rerr := deps.Forms.Report(ctx, from, to)
				if rerr != nil {
					return rerr
				}
				content, merr := json.MarshalIndent(bundle, "", "  ")
				if merr != nil {
					return merr
				}
				result = &service.FileResult{FileName: "raport-formulare.json", Content: content}
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = result.FileName
			}
			if path == "-" {
				_, err = cmd.OutOrStdout().Write(result.Content)
				return err
			}
			if err := os.WriteFile(path, result.Content, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			c.log.Info().Str("path", path).Int("bytes", len(result.Content)).Msg("report written")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "pdf, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout")
	return cmd
}
