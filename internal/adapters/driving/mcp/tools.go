package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// StatusInput is the input schema for the capture_status tool.
type StatusInput struct {
	IncludeWindows bool `json:"include_windows,omitempty" jsonschema:"include the per-window table"`
}

// StatusOutput is the output schema for the capture_status tool.
type StatusOutput struct {
	Running      bool                     `json:"running"`
	Paused       bool                     `json:"paused"`
	PowerMode    string                   `json:"power_mode"`
	BaseInterval string                   `json:"base_interval"`
	QueueDepth   int                      `json:"queue_depth"`
	WindowCount  int                      `json:"window_count"`
	Windows      []WindowOutput           `json:"windows,omitempty"`
	Counters     domain.SchedulerCounters `json:"counters"`
}

// WindowOutput is one tracked window.
type WindowOutput struct {
	ID          string `json:"id"`
	App         string `json:"app"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	State       string `json:"state"`
	Extractions int    `json:"extractions"`
	Problematic bool   `json:"problematic,omitempty"`
}

// ControlOutput is the output schema for the pause, resume and block tools.
type ControlOutput struct {
	Paused  bool   `json:"paused"`
	Message string `json:"message"`
}

// BlockInput is the input schema for the block_app tool.
type BlockInput struct {
	BundleID string `json:"bundle_id" jsonschema:"application identity to stop capturing for this session"`
}

// PushInput is the input schema for the push_content tool.
type PushInput struct {
	URL     string `json:"url" jsonschema:"canonical identifier of the content"`
	Source  string `json:"source,omitempty" jsonschema:"source kind (default mcp)"`
	Title   string `json:"title,omitempty" jsonschema:"optional title"`
	Format  string `json:"format,omitempty" jsonschema:"text, markdown or html (default text)"`
	Content string `json:"content" jsonschema:"the content to ingest"`
}

// PushOutput is the output schema for the push_content tool.
type PushOutput struct {
	Action     string `json:"action"`
	ChunkCount int    `json:"chunk_count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "capture_status",
		Description: "Report whether window capture is running, the power mode and queue depth",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pause_capture",
		Description: "Pause window capture until resumed",
	}, s.handlePause)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resume_capture",
		Description: "Resume window capture",
	}, s.handleResume)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "block_app",
		Description: "Never capture an application again for this session",
	}, s.handleBlock)

	if s.ports.Pusher != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "push_content",
			Description: "Ingest a piece of content under a canonical identifier",
		}, s.handlePush)
	}
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Controller.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		Running:      status.Running,
		Paused:       status.Paused,
		PowerMode:    string(status.PowerMode),
		BaseInterval: status.BaseInterval.Round(time.Second).String(),
		QueueDepth:   status.QueueDepth,
		WindowCount:  len(status.Windows),
		Counters:     status.Counters,
	}
	if input.IncludeWindows {
		output.Windows = make([]WindowOutput, len(status.Windows))
		for i, w := range status.Windows {
			output.Windows[i] = WindowOutput{
				ID:          string(w.ID),
				App:         w.AppID,
				Title:       w.Title,
				Kind:        string(w.Kind),
				State:       string(w.State),
				Extractions: w.ExtractionCount,
				Problematic: w.Problematic,
			}
		}
	}
	return nil, output, nil
}

func (s *Server) handlePause(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ControlOutput, error) {
	if err := s.ports.Controller.Pause(ctx); err != nil {
		return nil, ControlOutput{}, err
	}
	return nil, ControlOutput{Paused: true, Message: "capture paused"}, nil
}

func (s *Server) handleResume(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ControlOutput, error) {
	if err := s.ports.Controller.Resume(ctx); err != nil {
		return nil, ControlOutput{}, err
	}
	return nil, ControlOutput{Paused: false, Message: "capture resumed"}, nil
}

func (s *Server) handleBlock(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BlockInput,
) (*mcp.CallToolResult, ControlOutput, error) {
	if input.BundleID == "" {
		return nil, ControlOutput{}, fmt.Errorf("%w: bundle_id is required", domain.ErrInvalidInput)
	}
	if err := s.ports.Controller.Block(ctx, input.BundleID); err != nil {
		return nil, ControlOutput{}, err
	}
	status, err := s.ports.Controller.Status(ctx)
	if err != nil {
		return nil, ControlOutput{}, err
	}
	return nil, ControlOutput{
		Paused:  status.Paused,
		Message: fmt.Sprintf("blocked %s for this session", input.BundleID),
	}, nil
}

func (s *Server) handlePush(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PushInput,
) (*mcp.CallToolResult, PushOutput, error) {
	source := input.Source
	if source == "" {
		source = "mcp"
	}
	payload := &domain.ContentPayload{
		Source:     domain.SourceKind(source),
		URL:        input.URL,
		Title:      input.Title,
		Format:     input.Format,
		Content:    input.Content,
		CapturedAt: time.Now(),
	}
	if err := payload.Validate(); err != nil {
		return nil, PushOutput{}, err
	}
	result, err := s.ports.Pusher.Deliver(ctx, payload)
	if err != nil {
		return nil, PushOutput{}, err
	}
	return nil, PushOutput{Action: string(result.Action), ChunkCount: result.ChunkCount}, nil
}
