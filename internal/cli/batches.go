package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/gallery"
	"github.com/cyberwithaman/digicon/internal/models"
)

const timeLayout = "2006-01-02 15:04"

type filterFlags struct {
	query string
	date  string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "match title or batch id, case-insensitive")
	cmd.Flags().StringVar(&f.date, "date", "", "only batches created on this UTC day (YYYY-MM-DD)")
}

func (f *filterFlags) apply(filter *gallery.Filter) error {
	filter.SetQuery(f.query)
	if f.date == "" {
		filter.ClearDateFilter()
		return nil
	}
	d, err := gallery.ParseDate(f.date)
	if err != nil {
		return err
	}
	filter.SetDateFilter(&d)
	return nil
}

func (a *app) batchesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "batches",
		Aliases: []string{"batch"},
		Short:   "List and manage batches",
	}
	cmd.AddCommand(
		a.batchesListCommand(),
		a.batchesCreateCommand(),
		a.batchesShowCommand(),
		a.batchesDeleteCommand(),
	)
	return cmd
}

func (a *app) batchesListCommand() *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.browser(cmd.Context(), true)
			if err != nil {
				return err
			}
			if err := filters.apply(b.Filter()); err != nil {
				return err
			}

			batches := b.Filter().Filtered()
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(batches)
			}
			if len(batches) == 0 {
				a.printf("No batches found\n")
				return nil
			}
			return a.printBatches(batches)
		},
	}
	filters.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (a *app) printBatches(batches []models.Batch) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBATCH ID\tTITLE\tCREATED\tOWNER\tIMAGES")
	for _, b := range batches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			b.ID, b.ReferralOr("-"), b.TitleOr("-"), formatTime(b.CreatedAt), b.OwnerName(), len(b.Images))
	}
	return w.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func (a *app) batchesCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create an empty batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.browser(cmd.Context(), false)
			if err != nil {
				return err
			}
			batch, err := b.CreateBatch(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.printf("Created batch %d (%s)\n", batch.ID, batch.ReferralOr("no batch id"))
			return nil
		},
	}
}

func (a *app) batchesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one batch and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "batch")
			if err != nil {
				return err
			}
			b, err := a.browser(cmd.Context(), false)
			if err != nil {
				return err
			}
			batch, err := b.Batch(cmd.Context(), id)
			if err != nil {
				return err
			}

			a.printf("Batch ID:  %s\nTitle:     %s\nCreated:   %s\nOwner:     %s\nImages:    %d\n",
				batch.ReferralOr("N/A"), batch.TitleOr("N/A"), formatTime(batch.CreatedAt), batch.OwnerName(), len(batch.Images))
			for _, img := range batch.Images {
				a.printf("  %d\t%s\n", img.ID, img.URL)
			}
			return nil
		},
	}
}

func (a *app) batchesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a batch (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "batch")
			if err != nil {
				return err
			}
			b, err := a.browser(cmd.Context(), false)
			if err != nil {
				return err
			}

			ok, err := a.Confirm(cmd.Context(), fmt.Sprintf("Delete batch %d and all of its images?", id))
			if err != nil || !ok {
				a.printf("Cancelled\n")
				return err
			}
			if err := b.DeleteBatch(cmd.Context(), id); err != nil {
				return err
			}
			a.printf("Deleted batch %d\n", id)
			return nil
		},
	}
}

func (a *app) imagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Manage individual images",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "image")
			if err != nil {
				return err
			}
			b, err := a.browser(cmd.Context(), false)
			if err != nil {
				return err
			}

			ok, err := a.Confirm(cmd.Context(), fmt.Sprintf("Delete image %d?", id))
			if err != nil || !ok {
				a.printf("Cancelled\n")
				return err
			}
			if err := b.DeleteImage(cmd.Context(), id); err != nil {
				return err
			}
			a.printf("Deleted image %d\n", id)
			return nil
		},
	})
	return cmd
}
