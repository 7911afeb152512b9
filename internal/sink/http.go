package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/scenecap/scenecap/internal/errors"
)

const uploadTimestampLayout = "20060102_150405"

// HTTP uploads segments to a collector endpoint as multipart/form-data.
// The form carries the WAV buffer in the "audio" field plus "timestamp"
// and "scene_number" metadata fields.
type HTTP struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTP returns an HTTP sink posting to endpoint. A zero timeout
// defaults to 30 seconds.
func NewHTTP(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("sink", "http"),
	}
}

func (h *HTTP) Name() string { return "http" }

// Deliver posts the segment. Non-2xx responses are errors. Failed
// uploads are not retried; the next segment gets a fresh request.
func (h *HTTP) Deliver(ctx context.Context, seg Segment) error {
	body, contentType, err := h.buildForm(seg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return errors.New(err).
			Component("sink").
			Category(errors.CategoryNetwork).
			Context("operation", "build_upload_request").
			Context("endpoint", h.endpoint).
			Build()
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.New(err).
			Component("sink").
			Category(errors.CategoryNetwork).
			Context("operation", "upload_scene").
			Context("endpoint", h.endpoint).
			Context("filename", seg.Filename).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short excerpt of the response so logs stay useful
		// without swallowing a large error page.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("upload rejected with status %d: %s", resp.StatusCode, string(excerpt)).
			Component("sink").
			Category(errors.CategoryNetwork).
			Context("operation", "upload_scene").
			Context("status_code", resp.StatusCode).
			Context("filename", seg.Filename).
			Build()
	}

	h.logger.Debug("scene uploaded",
		"endpoint", h.endpoint,
		"filename", seg.Filename,
		"bytes", len(seg.Data))
	return nil
}

func (h *HTTP) buildForm(seg Segment) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fw, err := writer.CreateFormFile("audio", seg.Filename)
	if err != nil {
		return nil, "", errors.New(err).
			Component("sink").
			Category(errors.CategoryNetwork).
			Context("operation", "create_form_file").
			Build()
	}
	if _, err := fw.Write(seg.Data); err != nil {
		return nil, "", errors.New(err).
			Component("sink").
			Category(errors.CategoryNetwork).
			Context("operation", "write_form_audio").
			Build()
	}

	fields := map[string]string{
		"timestamp":    seg.Timestamp.Format(uploadTimestampLayout),
		"scene_number": fmt.Sprintf("%d", seg.Sequence),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", errors.New(err).
				Component("sink").
				Category(errors.CategoryNetwork).
				Context("operation", "write_form_field").
				Context("field", name).
				Build()
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", errors.New(err).
			Component("sink").
			Category(errors.CategoryNetwork).
			Context("operation", "close_form").
			Build()
	}
	return &buf, writer.FormDataContentType(), nil
}
