package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cgyc6688/aspect-ratio-automator/internal/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Adjust crops interactively",
		Long: `Opens the interactive grid: one tile per ratio showing its output size,
saved offsets, and cached preview. Enter opens the adjust screen with the
horizontal and vertical crop-center sliders; d downloads the archive.

Upload an image first with ` + "`ara upload`" + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}
			return tui.Run(ctrl)
		},
	}
}
