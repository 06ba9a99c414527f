package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage the persisted session",
	}

	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionCleanupCmd())
	cmd.AddCommand(newSessionClearCmd())

	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active session and its adjustments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if ctrl.SessionID() == "" {
				fmt.Fprintln(out, "No active session. Sessions expire 30 minutes after the last save.")
				return nil
			}

			fmt.Fprintln(out, "Session:", ctrl.SessionID())
			adjustments := ctrl.Adjustments()
			if len(adjustments) == 0 {
				fmt.Fprintln(out, "All ratios centered (no adjustments)")
				return nil
			}
			for _, key := range ratio.Keys() {
				if o, ok := adjustments[key]; ok {
					fmt.Fprintf(out, "  %-6s x %+d, y %+d\n", key, o.XOffset, o.YOffset)
				}
			}
			return nil
		},
	}
}

func newSessionCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove the session's files on the server and locally",
		Long: `Asks the server to delete the session's uploaded image and generated
previews (best effort) and clears the local session state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}
			if err := ctrl.Cleanup(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleaned up")
			return nil
		},
	}
}

func newSessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the session locally without touching the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(cmd)
			if err != nil {
				return err
			}
			if err := ctrl.Forget(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local session state cleared")
			return nil
		},
	}
}
