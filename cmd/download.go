package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	var output string
	var withManifest bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the packaged print-ready archive",
		Long: `Posts the session's full adjustment map and downloads the packaged ZIP
archive, named from the server's Content-Disposition header. The archive is
streamed to a temporary file and renamed once complete.

A YAML manifest recording the session and adjustments is written next to the
archive unless --manifest=false.`,
		Example: `  ara download
  ara download --output ~/prints --manifest=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}

			path, err := ctrl.Download(cmd.Context(), output, withManifest)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "Directory for the downloaded archive")
	cmd.Flags().BoolVar(&withManifest, "manifest", true, "Write a YAML manifest next to the archive")

	return cmd
}
