// Package manifest writes a YAML sidecar next to a downloaded archive so the
// crop settings that produced it can be reproduced later.
package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cgyc6688/aspect-ratio-automator/internal/api"
)

// Adjustment is one ratio's saved crop-center offset.
type Adjustment struct {
	XOffset int `yaml:"x_offset"`
	YOffset int `yaml:"y_offset"`
}

// Manifest records how an archive was produced.
type Manifest struct {
	Server      string                `yaml:"server"`
	SessionID   string                `yaml:"session_id"`
	Archive     string                `yaml:"archive"`
	CreatedAt   string                `yaml:"created_at"`
	Adjustments map[string]Adjustment `yaml:"adjustments"`
}

// New builds a manifest for a finished download.
func New(server, sessionID, archive string, adjustments map[string]api.Offsets) Manifest {
	adj := make(map[string]Adjustment, len(adjustments))
	for k, v := range adjustments {
		adj[k] = Adjustment{XOffset: v.XOffset, YOffset: v.YOffset}
	}
	return Manifest{
		Server:      server,
		SessionID:   sessionID,
		Archive:     archive,
		CreatedAt:   time.Now().Format("2006-01-02_15-04-05"),
		Adjustments: adj,
	}
}

// Write saves the manifest to path.
func Write(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
