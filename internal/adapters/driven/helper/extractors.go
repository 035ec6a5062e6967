package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Ensure the extractors implement the interface.
var (
	_ driven.Extractor = (*AccessibilityExtractor)(nil)
	_ driven.Extractor = (*OCRExtractor)(nil)
)

// Request is the JSON request written to the accessibility helper.
type Request struct {
	WindowID string `json:"window_id"`
	App      string `json:"app"`
	Title    string `json:"title"`
}

// Response is the JSON reply of the extraction helpers.
type Response struct {
	Text     string `json:"text"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Format   string `json:"format,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Author   string `json:"author,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// payload turns a helper response into a payload for the window.
func (r Response) payload(source domain.SourceKind, w domain.Window) (*domain.ContentPayload, error) {
	p := &domain.ContentPayload{
		Source:   source,
		URL:      r.URL,
		Title:    r.Title,
		Format:   r.Format,
		Channel:  r.Channel,
		Author:   r.Author,
		ThreadID: r.ThreadID,
		App:      w.AppID,
		Content:  r.Text,
	}
	if p.URL == "" {
		p.URL = domain.AppScopedPath(w.AppID, w.Title)
	}
	if p.Empty() {
		return nil, domain.ErrExtractionEmpty
	}
	return p, nil
}

// AccessibilityExtractor reads structured text through the accessibility
// helper.
type AccessibilityExtractor struct {
	runner *Runner
	argv   []string
}

// NewAccessibilityExtractor creates an extractor for argv.
func NewAccessibilityExtractor(runner *Runner, argv []string) *AccessibilityExtractor {
	return &AccessibilityExtractor{runner: runner, argv: argv}
}

// Kind returns domain.KindAccessibility.
func (e *AccessibilityExtractor) Kind() domain.ExtractorKind { return domain.KindAccessibility }

// Extract asks the helper for the window's text.
func (e *AccessibilityExtractor) Extract(ctx context.Context, req driven.ExtractRequest) (*domain.ContentPayload, error) {
	body, err := json.Marshal(Request{
		WindowID: string(req.Window.ID),
		App:      req.Window.AppID,
		Title:    req.Window.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	out, err := e.runner.Run(ctx, e.argv, body)
	if err != nil {
		return nil, fmt.Errorf("accessibility: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("decoding accessibility response: %w", err)
	}
	return resp.payload(domain.SourceAccessibility, req.Window)
}

// OCRExtractor recognises text in the captured window image through the
// OCR helper.
type OCRExtractor struct {
	runner *Runner
	argv   []string
}

// NewOCRExtractor creates an extractor for argv.
func NewOCRExtractor(runner *Runner, argv []string) *OCRExtractor {
	return &OCRExtractor{runner: runner, argv: argv}
}

// Kind returns domain.KindOptical.
func (e *OCRExtractor) Kind() domain.ExtractorKind { return domain.KindOptical }

// Extract encodes the captured image as PNG and hands it to the helper.
// Without an image there is nothing to recognise.
func (e *OCRExtractor) Extract(ctx context.Context, req driven.ExtractRequest) (*domain.ContentPayload, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("%w: no image to recognise", domain.ErrCaptureFailed)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, req.Image); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	out, err := e.runner.Run(ctx, e.argv, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("decoding ocr response: %w", err)
	}
	return resp.payload(domain.SourceOCR, req.Window)
}
