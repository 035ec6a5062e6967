package helper

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Ensure Capturer implements the interface.
var _ driven.ScreenCapturer = (*Capturer)(nil)

// Capturer captures window images through the capture helper.
type Capturer struct {
	runner *Runner
	argv   []string
}

// NewCapturer creates a capturer for argv.
func NewCapturer(runner *Runner, argv []string) *Capturer {
	return &Capturer{runner: runner, argv: argv}
}

// Capture returns the window image decoded from the helper's PNG output.
func (c *Capturer) Capture(ctx context.Context, window domain.Window) (image.Image, error) {
	if len(c.argv) == 0 {
		return nil, fmt.Errorf("%w: no capture helper configured", domain.ErrCaptureFailed)
	}
	out, err := c.runner.Run(ctx, c.argv, nil, string(window.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCaptureFailed, err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %w", domain.ErrCaptureFailed, err)
	}
	return img, nil
}
