package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgyc6688/aspect-ratio-automator/internal/api"
	"github.com/cgyc6688/aspect-ratio-automator/internal/inspect"
	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
	"github.com/cgyc6688/aspect-ratio-automator/internal/store"
)

// fakeService fakes the crop service and counts calls per endpoint.
type fakeService struct {
	mu         sync.Mutex
	uploads    int
	adjusts    int
	downloads  int
	cleanups   int
	lastAdjust api.AdjustRequest
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.uploads++
		f.mu.Unlock()

		_, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Server failed to read form file: %v", err)
		}

		previews := map[string]api.Preview{}
		for _, key := range ratio.Keys() {
			target, _ := ratio.Lookup(key)
			previews[key] = api.Preview{
				URL:        fmt.Sprintf("/preview/sess-123_%s_preview.jpg", key),
				Dimensions: target.Dimensions(),
			}
		}
		_ = json.NewEncoder(w).Encode(api.UploadResponse{
			Success:          true,
			SessionID:        "sess-123",
			OriginalFilename: header.Filename,
			Previews:         previews,
		})
	})

	mux.HandleFunc("/adjust", func(w http.ResponseWriter, r *http.Request) {
		var req api.AdjustRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.adjusts++
		f.lastAdjust = req
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(api.AdjustResponse{
			Success:    true,
			PreviewURL: fmt.Sprintf("/preview/%s_%s_preview.jpg", req.SessionID, req.Ratio),
		})
	})

	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.downloads++
		f.mu.Unlock()

		w.Header().Set("Content-Disposition", `attachment; filename="portrait_printready.zip"`)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK\x03\x04 fake zip"))
	})

	mux.HandleFunc("/cleanup", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.cleanups++
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "files_removed": 6})
	})

	mux.HandleFunc("/preview/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg bytes"))
	})

	return mux
}

func (f *fakeService) adjustCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adjusts
}

func newTestController(t *testing.T) (*Controller, *fakeService) {
	t.Helper()
	fake := &fakeService{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	ctrl := New(api.NewClient(server.URL), store.New(dir), filepath.Join(dir, "previews"))
	return ctrl, fake
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 12))))
	return path
}

func upload(t *testing.T, ctrl *Controller) {
	t.Helper()
	_, err := ctrl.Upload(context.Background(), writeTestImage(t), nil)
	require.NoError(t, err)
}

func TestUploadStartsFreshSession(t *testing.T) {
	ctrl, fake := newTestController(t)

	// Leftovers from an earlier session must not survive a new upload.
	ctrl.sessionID = "sess-old"
	ctrl.adjustments = map[string]api.Offsets{"2x3": {XOffset: 5, YOffset: 5}}

	resp, err := ctrl.Upload(context.Background(), writeTestImage(t), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.uploads)
	assert.Equal(t, "sess-123", ctrl.SessionID())
	assert.Empty(t, ctrl.Adjustments(), "adjustment map must be empty after upload")
	assert.Len(t, resp.Previews, 5)
}

func TestUploadRejectsInvalidFileWithoutNetwork(t *testing.T) {
	ctrl, fake := newTestController(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := ctrl.Upload(context.Background(), path, nil)
	assert.ErrorIs(t, err, inspect.ErrNotAnImage)
	assert.Zero(t, fake.uploads, "rejected file must not hit the network")
}

func TestUploadDeclinedByConfirm(t *testing.T) {
	ctrl, fake := newTestController(t)

	path := writeTestImage(t)
	require.NoError(t, os.Truncate(path, inspect.SoftWarnSize+1))

	_, err := ctrl.Upload(context.Background(), path, func(info *inspect.FileInfo) bool {
		return false
	})
	assert.ErrorIs(t, err, ErrUploadDeclined)
	assert.Zero(t, fake.uploads)
}

func TestSaveRequiresSession(t *testing.T) {
	ctrl, _ := newTestController(t)
	_, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveRejectsBadInput(t *testing.T) {
	ctrl, fake := newTestController(t)
	upload(t, ctrl)

	_, err := ctrl.Save(context.Background(), "16x9", 10, 10)
	assert.Error(t, err, "unknown ratio must be rejected")

	_, err = ctrl.Save(context.Background(), "4x5", 101, 0)
	assert.Error(t, err, "out-of-range offset must be rejected")

	assert.Zero(t, fake.adjustCount())
}

func TestSaveNoopGuard(t *testing.T) {
	ctrl, fake := newTestController(t)
	upload(t, ctrl)

	changed, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, fake.adjustCount())

	// Saving the same offsets again must not hit the network.
	changed, err = ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, fake.adjustCount())

	// Centered offsets on an unadjusted ratio are also a no-op.
	changed, err = ctrl.Save(context.Background(), "2x3", 0, 0)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, fake.adjustCount())
}

func TestResetRemovesEntry(t *testing.T) {
	ctrl, fake := newTestController(t)
	upload(t, ctrl)

	_, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)
	require.True(t, ctrl.Adjusted("4x5"))

	require.NoError(t, ctrl.Reset(context.Background(), "4x5"))

	assert.False(t, ctrl.Adjusted("4x5"))
	assert.Empty(t, ctrl.Adjustments(), "reset must remove the entry, not zero it")
	assert.Equal(t, 2, fake.adjustCount())
	assert.Equal(t, api.AdjustRequest{SessionID: "sess-123", Ratio: "4x5"}, fake.lastAdjust,
		"reset must re-render the centered crop")

	// Resetting an already-centered ratio is a local no-op.
	require.NoError(t, ctrl.Reset(context.Background(), "4x5"))
	assert.Equal(t, 2, fake.adjustCount())
}

func TestSaveZeroActsAsReset(t *testing.T) {
	ctrl, _ := newTestController(t)
	upload(t, ctrl)

	_, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)

	changed, err := ctrl.Save(context.Background(), "4x5", 0, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, ctrl.Adjustments(), "explicit (0,0) must not leave a zero-valued entry")
}

func TestDownload(t *testing.T) {
	ctrl, _ := newTestController(t)
	upload(t, ctrl)

	_, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := ctrl.Download(context.Background(), dir, true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "portrait_printready.zip"), path)
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04 fake zip", string(contents))

	manifestBytes, err := os.ReadFile(path + ".manifest.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(manifestBytes), "4x5")
	assert.Contains(t, string(manifestBytes), "x_offset: 20")

	// No stray partial files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".partial"), "partial file left behind: %s", e.Name())
	}
}

func TestDownloadRequiresSession(t *testing.T) {
	ctrl, _ := newTestController(t)
	_, err := ctrl.Download(context.Background(), t.TempDir(), false)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCleanupClearsState(t *testing.T) {
	ctrl, fake := newTestController(t)
	upload(t, ctrl)
	_, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)

	require.NoError(t, ctrl.Cleanup(context.Background()))

	assert.Equal(t, 1, fake.cleanups)
	assert.Empty(t, ctrl.SessionID())
	assert.Empty(t, ctrl.Adjustments())
}

func TestRestoreRoundTrip(t *testing.T) {
	fake := &fakeService{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	ctrl := New(api.NewClient(server.URL), store.New(dir), filepath.Join(dir, "previews"))
	upload(t, ctrl)
	_, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)

	// A second controller over the same state dir sees the session.
	restored := New(api.NewClient(server.URL), store.New(dir), filepath.Join(dir, "previews"))
	require.NoError(t, restored.Restore())
	assert.Equal(t, "sess-123", restored.SessionID())
	assert.Equal(t, api.Offsets{XOffset: 20, YOffset: -10}, restored.Offsets("4x5"))
}

func TestAdjustFlowEndToEnd(t *testing.T) {
	ctrl, fake := newTestController(t)
	upload(t, ctrl)

	before := ctrl.PreviewURL("4x5")
	require.NotEmpty(t, before)

	changed, err := ctrl.Save(context.Background(), "4x5", 20, -10)
	require.NoError(t, err)
	assert.True(t, changed)

	after := ctrl.PreviewURL("4x5")
	assert.NotEqual(t, before, after, "tile URL must change after an adjustment")
	assert.Contains(t, after, "t=", "new tile URL must be cache-busted")

	assert.Equal(t, map[string]api.Offsets{
		"4x5": {XOffset: 20, YOffset: -10},
	}, ctrl.Adjustments())
	assert.Equal(t, api.AdjustRequest{
		SessionID: "sess-123",
		Ratio:     "4x5",
		XOffset:   20,
		YOffset:   -10,
	}, fake.lastAdjust)

	// The refreshed tile landed in the local cache.
	assert.NotEmpty(t, ctrl.PreviewPath("4x5"))
}
