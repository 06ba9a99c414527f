package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cgyc6688/aspect-ratio-automator/internal/api"
	"github.com/cgyc6688/aspect-ratio-automator/internal/controller"
	"github.com/cgyc6688/aspect-ratio-automator/internal/store"
)

const defaultServerURL = "http://localhost:5000"

func serverURL(cmd *cobra.Command) string {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = os.Getenv("ARA_SERVER_URL")
	}
	if server == "" {
		server = defaultServerURL
	}
	return server
}

// newController wires the API client, state store, and preview cache, and
// restores any session persisted within the last 30 minutes.
func newController(cmd *cobra.Command) (*controller.Controller, error) {
	dir, err := store.DefaultDir()
	if err != nil {
		return nil, err
	}

	ctrl := controller.New(
		api.NewClient(serverURL(cmd)),
		store.New(dir),
		filepath.Join(dir, "previews"),
	)
	if err := ctrl.Restore(); err != nil {
		slog.Warn("Failed to restore session state", "err", err)
	}
	return ctrl, nil
}
