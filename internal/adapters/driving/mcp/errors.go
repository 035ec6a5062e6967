// Package mcp provides an MCP (Model Context Protocol) server adapter for Glance.
// It lets AI assistants inspect and steer the capture daemon.
package mcp

import "errors"

// ErrMissingController is returned when the capture controller is not provided.
var ErrMissingController = errors.New("mcp: capture controller is required")
