package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
)

func newAdjustCmd() *cobra.Command {
	var x, y int
	var reset bool

	cmd := &cobra.Command{
		Use:   "adjust <ratio>",
		Short: "Move the crop center for one ratio",
		Long: fmt.Sprintf(`Saves a crop-center offset for one ratio. Offsets are integer percent in
[%d, %d]; positive x moves the crop right, positive y moves it down.

Saving the offsets a ratio already has is a no-op. Saving (0, 0) or passing
--reset clears the adjustment entirely and restores the centered preview.

Known ratios: %s`, ratio.MinOffset, ratio.MaxOffset, strings.Join(ratio.Keys(), ", ")),
		Example: `  # Shift the 4x5 crop right and up
  ara adjust 4x5 --x 20 --y -10

  # Back to centered
  ara adjust 4x5 --reset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if reset {
				if err := ctrl.Reset(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s reset to centered crop\n", key)
				return nil
			}

			changed, err := ctrl.Save(cmd.Context(), key, x, y)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(out, "%s already at (%+d, %+d), nothing to do\n", key, x, y)
				return nil
			}
			if ctrl.Adjusted(key) {
				fmt.Fprintf(out, "%s crop moved to (%+d, %+d)\n", key, x, y)
			} else {
				fmt.Fprintf(out, "%s reset to centered crop\n", key)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "Horizontal offset in percent")
	cmd.Flags().IntVar(&y, "y", 0, "Vertical offset in percent")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the adjustment and recenter")

	return cmd
}
