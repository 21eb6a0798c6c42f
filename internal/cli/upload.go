package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/gallery"
)

func (a *app) uploadCommand() *cobra.Command {
	var camera bool
	cmd := &cobra.Command{
		Use:   "upload <batch-id> [files...]",
		Short: "Preview and upload images to a batch",
		Long: "Upload picks the given files, or every file in upload.capturedir with --camera,\n" +
			"shows a preview and sends them in one request after confirmation.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			batchID, err := parseID(args[0], "batch")
			if err != nil {
				return err
			}
			b, err := a.browser(ctx, false)
			if err != nil {
				return err
			}
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}

			source := gallery.SourceLibrary
			if camera {
				source = gallery.SourceCamera
			}
			picker := gallery.FilePicker{Paths: args[1:], CaptureDir: a.cfg.Upload.CaptureDir}

			flow := gallery.NewUploadFlow(picker, a.client, sess, a.log)
			flow.OnUploaded(b.Refresh)

			if err := flow.Select(ctx, source); err != nil {
				return err
			}
			selection := flow.Selection()
			if flow.State() != gallery.StatePreviewing {
				a.printf("No images selected\n")
				return nil
			}

			a.printf("Selected %d image(s):\n", len(selection))
			for _, asset := range selection {
				a.printf("  %s\t%s\t%d bytes\n", asset.Name, asset.MIME, len(asset.Data))
			}

			ok, err := a.Confirm(ctx, fmt.Sprintf("Upload %d image(s) to batch %d?", len(selection), batchID))
			if err != nil || !ok {
				if cerr := flow.Cancel(); cerr != nil {
					return cerr
				}
				a.printf("Upload cancelled\n")
				return err
			}

			// A failed upload leaves the selection in Previewing, so a retry
			// resends the same images without picking again.
			for {
				err := flow.Upload(ctx, batchID)
				if err == nil {
					break
				}
				retry := false
				if !a.yes {
					a.printf("Upload failed: %s\n", Message(err))
					retry, _ = a.Confirm(ctx, "Retry?")
				}
				if !retry {
					if cancelErr := flow.Cancel(); cancelErr != nil {
						return cancelErr
					}
					return err
				}
			}
			a.printf("Uploaded %d image(s) to batch %d\n", len(selection), batchID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&camera, "camera", false, "take every file in upload.capturedir")
	return cmd
}
