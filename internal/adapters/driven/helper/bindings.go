package helper

import (
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
)

// Bindings are the helper-backed adapters built from settings. Each field
// is nil when its command is not configured.
type Bindings struct {
	Windows       *WindowSource
	Capturer      *Capturer
	Accessibility *AccessibilityExtractor
	OCR           *OCRExtractor
	Device        *DeviceMonitor
}

// New builds bindings for the configured helper commands.
func New(settings domain.HelperSettings) Bindings {
	runner := NewRunner(settings.Timeout())
	var b Bindings
	if len(settings.WindowsCommand) > 0 {
		b.Windows = NewWindowSource(runner, settings.WindowsCommand)
	}
	if len(settings.CaptureCommand) > 0 {
		b.Capturer = NewCapturer(runner, settings.CaptureCommand)
	}
	if len(settings.AccessibilityCommand) > 0 {
		b.Accessibility = NewAccessibilityExtractor(runner, settings.AccessibilityCommand)
	}
	if len(settings.OCRCommand) > 0 {
		b.OCR = NewOCRExtractor(runner, settings.OCRCommand)
	}
	if len(settings.DeviceCommand) > 0 {
		b.Device = NewDeviceMonitor(runner, settings.DeviceCommand)
	}
	return b
}

// WindowSource returns the window source or nil.
func (b Bindings) WindowSource() driven.WindowSource {
	if b.Windows == nil {
		return nil
	}
	return b.Windows
}

// ActivationSource returns the activation source or nil.
func (b Bindings) ActivationSource() driven.ActivationSource {
	if b.Windows == nil {
		return nil
	}
	return b.Windows
}

// ScreenCapturer returns the capturer or nil.
func (b Bindings) ScreenCapturer() driven.ScreenCapturer {
	if b.Capturer == nil {
		return nil
	}
	return b.Capturer
}

// DeviceMonitor returns the device monitor or nil.
func (b Bindings) DeviceMonitor() driven.DeviceMonitor {
	if b.Device == nil {
		return nil
	}
	return b.Device
}

// Extractors returns the configured extractors.
func (b Bindings) Extractors() []driven.Extractor {
	var out []driven.Extractor
	if b.Accessibility != nil {
		out = append(out, b.Accessibility)
	}
	if b.OCR != nil {
		out = append(out, b.OCR)
	}
	return out
}
