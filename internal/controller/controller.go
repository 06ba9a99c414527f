// Package controller owns the client-side state of one cropping session: the
// session id, the per-ratio adjustment map, the current preview URLs, and the
// local preview cache. All image computation happens server-side; the
// controller only issues requests and keeps its bookkeeping consistent.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cgyc6688/aspect-ratio-automator/internal/api"
	"github.com/cgyc6688/aspect-ratio-automator/internal/inspect"
	"github.com/cgyc6688/aspect-ratio-automator/internal/manifest"
	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
	"github.com/cgyc6688/aspect-ratio-automator/internal/store"
)

var (
	ErrNoSession      = errors.New("no active session: upload an image first")
	ErrUploadDeclined = errors.New("upload cancelled")
)

// ConfirmFunc asks the user to confirm uploading a large file.
type ConfirmFunc func(info *inspect.FileInfo) bool

// Controller drives the upload, adjustment, and download flows against the
// service. It is not safe for concurrent use; overlapping operations are the
// caller's problem, as in the original UI.
type Controller struct {
	client   *api.Client
	store    *store.Store
	cacheDir string

	sessionID   string
	adjustments map[string]api.Offsets
	// previews maps ratio key to the URL currently backing its tile. Only
	// ever populated from server responses, except for the direct-preview
	// fallback when a tile has no cached URL.
	previews map[string]string
}

// New creates a controller. cacheDir holds fetched preview tiles.
func New(client *api.Client, st *store.Store, cacheDir string) *Controller {
	return &Controller{
		client:      client,
		store:       st,
		cacheDir:    cacheDir,
		adjustments: map[string]api.Offsets{},
		previews:    map[string]string{},
	}
}

// SessionID returns the active session id, or "" when none.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Adjustments returns a copy of the adjustment map. It only contains ratios
// the user explicitly moved off center.
func (c *Controller) Adjustments() map[string]api.Offsets {
	out := make(map[string]api.Offsets, len(c.adjustments))
	for k, v := range c.adjustments {
		out[k] = v
	}
	return out
}

// Offsets returns the saved offsets for a ratio, (0,0) when unadjusted.
func (c *Controller) Offsets(key string) api.Offsets {
	return c.adjustments[key]
}

// Adjusted reports whether a ratio has a saved adjustment.
func (c *Controller) Adjusted(key string) bool {
	_, ok := c.adjustments[key]
	return ok
}

// PreviewURL returns the URL currently backing a ratio's tile, falling back
// to the direct preview path when the server never supplied one.
func (c *Controller) PreviewURL(key string) string {
	if url, ok := c.previews[key]; ok {
		return url
	}
	if c.sessionID == "" {
		return ""
	}
	return c.client.PreviewURL(c.sessionID, key)
}

// PreviewPath returns the cached tile file for a ratio, or "" when the tile
// could not be fetched (the placeholder case).
func (c *Controller) PreviewPath(key string) string {
	path := c.tilePath(key)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Restore loads persisted state from a previous run. State older than the
// session window loads as empty.
func (c *Controller) Restore() error {
	state, err := c.store.Load()
	if err != nil {
		return err
	}
	if state.Empty() {
		return nil
	}
	c.sessionID = state.SessionID
	c.adjustments = state.Adjustments
	slog.Debug("Restored session state", "session_id", c.sessionID, "adjustments", len(c.adjustments))
	return nil
}

// Upload validates a local image, uploads it, and starts a fresh session:
// the previous adjustment map is dropped, previews come from the response,
// and the state file is rewritten. confirm is consulted for files over the
// soft size threshold; a nil confirm accepts them.
func (c *Controller) Upload(ctx context.Context, path string, confirm ConfirmFunc) (*api.UploadResponse, error) {
	info, err := inspect.ValidateFile(path)
	if err != nil {
		return nil, err
	}
	if info.LargeFile && confirm != nil && !confirm(info) {
		return nil, ErrUploadDeclined
	}

	resp, err := c.client.Upload(ctx, path)
	if err != nil {
		return nil, err
	}

	c.sessionID = resp.SessionID
	c.adjustments = map[string]api.Offsets{}
	c.previews = map[string]string{}
	for key, p := range resp.Previews {
		if p.Error == "" && p.URL != "" {
			c.previews[key] = p.URL
		}
	}
	if err := c.persist(); err != nil {
		return nil, err
	}

	slog.Info("Upload complete", "session_id", c.sessionID, "previews", len(c.previews))

	c.refreshAllTiles(ctx)
	if err := inspect.Thumbnail(path, filepath.Join(c.cacheDir, "source_thumb.jpg")); err != nil {
		slog.Warn("Failed to write source thumbnail", "err", err)
	}
	return resp, nil
}

// Save posts new offsets for a ratio. It returns changed=false without any
// network call when the offsets equal the last-saved ones (or are centered
// with no saved entry). Saving explicit (0,0) over a saved entry behaves as
// a reset so the map never holds a zero-valued entry.
func (c *Controller) Save(ctx context.Context, key string, x, y int) (changed bool, err error) {
	if c.sessionID == "" {
		return false, ErrNoSession
	}
	if !ratio.Valid(key) {
		return false, fmt.Errorf("unknown ratio %q", key)
	}
	if !ratio.ValidOffset(x) || !ratio.ValidOffset(y) {
		return false, fmt.Errorf("offsets must be between %d and %d", ratio.MinOffset, ratio.MaxOffset)
	}

	current, saved := c.adjustments[key]
	next := api.Offsets{XOffset: x, YOffset: y}
	if saved && current == next {
		return false, nil
	}
	if !saved && x == 0 && y == 0 {
		return false, nil
	}
	if saved && x == 0 && y == 0 {
		return true, c.Reset(ctx, key)
	}

	resp, err := c.client.Adjust(ctx, api.AdjustRequest{
		SessionID: c.sessionID,
		Ratio:     key,
		XOffset:   x,
		YOffset:   y,
	})
	if err != nil {
		return false, err
	}

	c.adjustments[key] = next
	c.bustTile(ctx, key, resp.PreviewURL)
	if err := c.persist(); err != nil {
		return true, err
	}
	slog.Info("Adjustment saved", "ratio", key, "x_offset", x, "y_offset", y)
	return true, nil
}

// Reset clears a ratio's adjustment: the map entry is removed (never stored
// as a zero offset) and the server re-renders the centered preview.
func (c *Controller) Reset(ctx context.Context, key string) error {
	if c.sessionID == "" {
		return ErrNoSession
	}
	if !ratio.Valid(key) {
		return fmt.Errorf("unknown ratio %q", key)
	}
	if _, ok := c.adjustments[key]; !ok {
		return nil
	}

	resp, err := c.client.Adjust(ctx, api.AdjustRequest{
		SessionID: c.sessionID,
		Ratio:     key,
		XOffset:   0,
		YOffset:   0,
	})
	if err != nil {
		return err
	}

	delete(c.adjustments, key)
	c.bustTile(ctx, key, resp.PreviewURL)
	if err := c.persist(); err != nil {
		return err
	}
	slog.Info("Adjustment reset", "ratio", key)
	return nil
}

// Download posts the full adjustment map and streams the packaged archive
// into dir, named from the response's disposition header. The file is
// written to a temporary name and renamed once complete. When withManifest
// is set a YAML sidecar is written next to the archive.
func (c *Controller) Download(ctx context.Context, dir string, withManifest bool) (string, error) {
	if c.sessionID == "" {
		return "", ErrNoSession
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := filepath.Join(dir, uuid.NewString()+".partial")
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}

	filename, err := c.client.Download(ctx, c.sessionID, c.Adjustments(), f)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finish download file: %w", closeErr)
	}

	dst := filepath.Join(dir, filepath.Base(filename))
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}
	slog.Info("Archive downloaded", "path", dst, "adjustments", len(c.adjustments))

	if withManifest {
		m := manifest.New(c.client.BaseURL, c.sessionID, filepath.Base(dst), c.Adjustments())
		if err := manifest.Write(dst+".manifest.yaml", m); err != nil {
			slog.Warn("Failed to write download manifest", "err", err)
		}
	}
	return dst, nil
}

// Cleanup asks the server to drop the session's files (best effort) and
// clears all local state.
func (c *Controller) Cleanup(ctx context.Context) error {
	if c.sessionID != "" {
		if err := c.client.Cleanup(ctx, c.sessionID); err != nil {
			slog.Warn("Server cleanup failed", "session_id", c.sessionID, "err", err)
		}
	}
	return c.Forget()
}

// Forget clears local state only; the server keeps the session until expiry.
func (c *Controller) Forget() error {
	c.sessionID = ""
	c.adjustments = map[string]api.Offsets{}
	c.previews = map[string]string{}
	return c.store.Clear()
}

func (c *Controller) persist() error {
	return c.store.Save(store.State{
		SessionID:   c.sessionID,
		Adjustments: c.adjustments,
	})
}

// bustTile records a cache-busted preview URL for a ratio and refetches its
// tile. An empty serverURL falls back to the direct preview path.
func (c *Controller) bustTile(ctx context.Context, key, serverURL string) {
	if serverURL == "" {
		serverURL = c.client.PreviewURL(c.sessionID, key)
	}
	c.previews[key] = api.CacheBust(serverURL)
	c.refreshTile(ctx, key)
}

func (c *Controller) refreshAllTiles(ctx context.Context) {
	for _, key := range ratio.Keys() {
		if _, ok := c.previews[key]; ok {
			c.refreshTile(ctx, key)
		}
	}
}

// refreshTile fetches a ratio's preview into the local cache. Failures leave
// the tile absent; the grid renders a placeholder instead of failing.
func (c *Controller) refreshTile(ctx context.Context, key string) {
	url := c.PreviewURL(key)
	if url == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		slog.Warn("Failed to create preview cache", "err", err)
		return
	}

	f, err := os.Create(c.tilePath(key))
	if err != nil {
		slog.Warn("Failed to create preview tile", "ratio", key, "err", err)
		return
	}
	defer f.Close()

	if err := c.client.FetchPreview(ctx, url, f); err != nil {
		slog.Warn("Failed to fetch preview", "ratio", key, "url", url, "err", err)
		_ = os.Remove(c.tilePath(key))
	}
}

func (c *Controller) tilePath(key string) string {
	return filepath.Join(c.cacheDir, key+"_preview.jpg")
}
