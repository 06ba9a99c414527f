package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgyc6688/aspect-ratio-automator/internal/inspect"
)

func newInspectCmd() *cobra.Command {
	var thumbnail string

	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Check an image locally before uploading",
		Long: `Runs the client-side preflight checks without any network traffic: file
type, size limits, pixel dimensions, and whether the image has enough pixels
for each ratio's print-ready output at 300 DPI.`,
		Example: `  ara inspect portrait.jpg

  # Also write a 300px thumbnail
  ara inspect portrait.jpg --thumbnail thumb.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := inspect.Describe(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s: %s, %d x %d px, %.1fMB\n",
				report.Path, report.ContentType, report.Width, report.Height,
				float64(report.Size)/1024/1024)
			if report.LargeFile {
				fmt.Fprintln(out, "Note: over 10MB, upload will ask for confirmation")
			}

			fmt.Fprintln(out, "\nPrint coverage at 300 DPI:")
			for _, check := range report.PrintChecks {
				mark := "ok"
				if !check.OK {
					mark = "UPSCALED (may not print clearly)"
				}
				fmt.Fprintf(out, "  %-6s %-18s %s\n", check.Ratio, check.Target, mark)
			}

			if thumbnail != "" {
				if err := inspect.Thumbnail(args[0], thumbnail); err != nil {
					return err
				}
				fmt.Fprintln(out, "\nThumbnail written to", thumbnail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "Write a 300px thumbnail to this path")

	return cmd
}
