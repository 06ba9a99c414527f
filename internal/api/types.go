package api

// Offsets is a crop-center adjustment for one ratio, in integer percent
// from the image's natural center.
type Offsets struct {
	XOffset int `json:"x_offset"`
	YOffset int `json:"y_offset"`
}

// Preview describes one generated crop preview.
type Preview struct {
	URL         string `json:"url,omitempty"`
	Dimensions  string `json:"dimensions"`
	PreviewSize string `json:"preview_size,omitempty"`
	Error       string `json:"error,omitempty"`
}

// UploadResponse is the service's reply to a file upload.
type UploadResponse struct {
	Success          bool               `json:"success"`
	SessionID        string             `json:"session_id"`
	OriginalFilename string             `json:"original_filename"`
	DPIWarning       string             `json:"dpi_warning,omitempty"`
	SizeWarning      string             `json:"size_warning,omitempty"`
	Previews         map[string]Preview `json:"previews"`
	Error            string             `json:"error,omitempty"`
}

// AdjustRequest moves the crop center for one ratio.
type AdjustRequest struct {
	SessionID string `json:"session_id"`
	Ratio     string `json:"ratio"`
	XOffset   int    `json:"x_offset"`
	YOffset   int    `json:"y_offset"`
}

// AdjustResponse is the service's reply to an adjustment.
type AdjustResponse struct {
	Success    bool   `json:"success"`
	PreviewURL string `json:"preview_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

type downloadRequest struct {
	SessionID   string             `json:"session_id"`
	Adjustments map[string]Offsets `json:"adjustments"`
}

type cleanupRequest struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}
