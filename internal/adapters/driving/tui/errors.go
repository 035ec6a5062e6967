package tui

import "errors"

// ErrMissingController is returned when the capture controller is not provided.
var ErrMissingController = errors.New("tui: capture controller is required")
