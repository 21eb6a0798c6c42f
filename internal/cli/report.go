package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/report"
	"github.com/cyberwithaman/digicon/internal/share"
)

func (a *app) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export batch reports",
	}
	cmd.AddCommand(a.reportExportCommand(), a.reportSheetCommand())
	return cmd
}

func (a *app) reportExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <batch-id>",
		Short: "Render a batch into a self-contained HTML report and share it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "batch")
			if err != nil {
				return err
			}
			b, err := a.browser(ctx, true)
			if err != nil {
				return err
			}
			sharer, err := share.New(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}

			exporter := report.NewExporter(b.Filter(), a.client, sharer, report.Options{
				Dir:         a.cfg.Report.Dir,
				MaxWidth:    a.cfg.Report.MaxWidth,
				Concurrency: a.cfg.Report.Concurrency,
			}, a.log)

			res, err := exporter.Export(ctx, id)
			if err != nil {
				return err
			}
			a.printf("Report ready: %s\n", res.Location)
			if res.Skipped > 0 {
				a.printf("%d of %d image(s) could not be included\n", res.Skipped, res.Embedded+res.Skipped)
			}
			return nil
		},
	}
}

func (a *app) reportSheetCommand() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "sheet <file.xlsx>",
		Short: "Write the (filtered) batch list to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.browser(cmd.Context(), true)
			if err != nil {
				return err
			}
			if err := filters.apply(b.Filter()); err != nil {
				return err
			}
			batches := b.Filter().Filtered()
			if err := report.WriteSheet(args[0], batches, time.Local); err != nil {
				return err
			}
			a.printf("Wrote %d batch(es) to %s\n", len(batches), args[0])
			return nil
		},
	}
	filters.bind(cmd)
	return cmd
}
