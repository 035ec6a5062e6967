package driven

import (
	"context"
	"image"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// WindowSource enumerates windows and displays from the OS.
type WindowSource interface {
	// ListWindows returns every on-screen window, front to back.
	ListWindows(ctx context.Context) ([]domain.WindowInfo, error)

	// ListDisplays returns the current display topology.
	ListDisplays(ctx context.Context) ([]domain.Display, error)
}

// ActivationSource delivers OS application-activation notifications.
// The channel carries the activated application identity and is closed
// when ctx is cancelled.
type ActivationSource interface {
	Activations(ctx context.Context) (<-chan string, error)
}

// ScreenCapturer captures a window's current image.
type ScreenCapturer interface {
	// Capture returns the window image. Failures should wrap
	// domain.ErrCaptureFailed.
	Capture(ctx context.Context, window domain.Window) (image.Image, error)
}

// DeviceMonitor reports power, thermal and user-idle state.
type DeviceMonitor interface {
	State(ctx context.Context) (domain.DeviceState, error)
}
