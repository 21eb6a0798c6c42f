package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/jobs"
	"github.com/cyberwithaman/digicon/internal/server"
	"github.com/cyberwithaman/digicon/internal/share"
)

func (a *app) shareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Serve and expire shared reports",
	}
	cmd.AddCommand(a.shareServeCommand(), a.sharePurgeCommand())
	return cmd
}

// purgers lists every place exported reports pile up: report.dir and the
// location of the configured share mode.
func (a *app) purgers(ctx context.Context, extra ...share.Purger) share.Purgers {
	p := share.Purgers{share.NewFileSharer(a.cfg.Report.Dir)}
	p = append(p, extra...)

	sharer, err := share.New(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Warn().Err(err).Str("mode", a.cfg.Share.Mode).Msg("shared reports will not be purged")
		return p
	}
	if purger, ok := sharer.(share.Purger); ok {
		p = append(p, purger)
	}
	return p
}

func (a *app) shareServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve share.dir under signed /reports/<token> links until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			links, err := share.NewLinkSharer(a.cfg.Share, a.log)
			if err != nil {
				return err
			}

			httpServer := server.NewHTTPServer(a.cfg, a.log, links)
			scheduler := jobs.NewScheduler(a.purgers(cmd.Context(), links), a.cfg.Share.Retention, a.log)
			if err := scheduler.Start(); err != nil {
				a.log.Error().Err(err).Msg("scheduler start failed")
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.Start()
			}()

			select {
			case err = <-errCh:
			case <-cmd.Context().Done():
				a.log.Info().Msg("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
				a.log.Error().Err(serr).Msg("graceful shutdown failed")
			}
			scheduler.Stop(shutdownCtx)

			return err
		},
	}
}

func (a *app) sharePurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove exported and shared reports older than share.retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			removed, err := jobs.NewScheduler(a.purgers(ctx), a.cfg.Share.Retention, a.log).Sweep(ctx)
			a.printf("Removed %d report(s)\n", removed)
			return err
		},
	}
}
