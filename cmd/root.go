package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ara",
		Short: "Client for the Aspect-Ratio Automator print cropping service",
		Long: `ara uploads an image to the Aspect-Ratio Automator service, shows the
generated crop previews for each print ratio, lets you nudge the crop center
per ratio, and downloads the packaged print-ready archive.

All image processing happens server-side; this client only drives the API
and keeps a small session state file so a run can be resumed within the
server's 30-minute session window.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().String("server", "", "Base URL of the crop service (defaults to ARA_SERVER_URL, then http://localhost:5000)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newAdjustCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newTUICmd())

	return cmd
}
