package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cgyc6688/aspect-ratio-automator/internal/inspect"
	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
)

func newUploadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload an image and generate crop previews",
		Long: `Uploads a JPG, PNG, or TIFF image to the crop service and prints the
generated preview for each print ratio.

Uploading starts a fresh session: any adjustments from a previous upload are
discarded. Files are validated locally first; anything over 50MB is rejected
and anything over 10MB asks for confirmation.`,
		Example: `  # Upload a photo
  ara upload portrait.jpg

  # Skip the large-file confirmation
  ara upload scan.tiff --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			confirm := func(info *inspect.FileInfo) bool {
				if force {
					return true
				}
				fmt.Fprintf(out, "%s is %.1fMB; uploads over 10MB can be slow on the free tier. Continue? [y/N] ",
					info.Path, float64(info.Size)/1024/1024)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				line = strings.ToLower(strings.TrimSpace(line))
				return line == "y" || line == "yes"
			}

			resp, err := ctrl.Upload(cmd.Context(), args[0], confirm)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Uploaded %s (session %s)\n", resp.OriginalFilename, resp.SessionID)
			if resp.DPIWarning != "" {
				fmt.Fprintln(out, "Warning:", resp.DPIWarning)
			}
			if resp.SizeWarning != "" {
				fmt.Fprintln(out, "Warning:", resp.SizeWarning)
			}

			fmt.Fprintln(out)
			for _, key := range ratio.Keys() {
				p, ok := resp.Previews[key]
				if !ok {
					continue
				}
				if p.Error != "" {
					fmt.Fprintf(out, "  %-6s %-18s preview failed: %s\n", key, p.Dimensions, p.Error)
					continue
				}
				fmt.Fprintf(out, "  %-6s %-18s %s\n", key, p.Dimensions, p.URL)
			}
			fmt.Fprintln(out, "\nRun `ara tui` to adjust crops interactively, or `ara adjust <ratio> --x N --y N`.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the large-file confirmation")

	return cmd
}
