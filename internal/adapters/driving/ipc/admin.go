package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/custodia-labs/glance/internal/core/ports/driving"
	"github.com/custodia-labs/glance/internal/logger"
)

// adminDeadline bounds one admin exchange.
const adminDeadline = 10 * time.Second

// AdminServer serves the administrative control socket.
type AdminServer struct {
	server
	controller driving.Controller
}

// NewAdminServer creates an admin server on path.
func NewAdminServer(path string, controller driving.Controller) *AdminServer {
	s := &AdminServer{controller: controller}
	s.server = server{name: "admin", path: path, handle: s.handle}
	return s
}

// Serve accepts connections until ctx is cancelled or Close is called.
func (s *AdminServer) Serve(ctx context.Context) error {
	return s.serve(ctx)
}

func (s *AdminServer) handle(ctx context.Context, conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(adminDeadline))

	var req AdminRequest
	var resp AdminResponse
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		resp = AdminResponse{Status: StatusError, Message: fmt.Sprintf("invalid request: %v", err)}
	} else {
		resp = s.Execute(ctx, req)
	}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		logger.Debug("writing admin response", "error", err)
	}
}

// Execute runs one admin request against the controller.
func (s *AdminServer) Execute(ctx context.Context, req AdminRequest) AdminResponse {
	var err error
	switch req.Action {
	case ActionPause:
		err = s.controller.Pause(ctx)
	case ActionResume:
		err = s.controller.Resume(ctx)
	case ActionStatus:
	case ActionBlock:
		if req.BundleID == "" {
			return AdminResponse{Status: StatusError, Message: "block requires bundle_id"}
		}
		err = s.controller.Block(ctx, req.BundleID)
	default:
		return AdminResponse{Status: StatusError, Message: fmt.Sprintf("unknown action %q", req.Action)}
	}
	if err != nil {
		return AdminResponse{Status: StatusError, Message: err.Error()}
	}

	status, err := s.controller.Status(ctx)
	if err != nil {
		return AdminResponse{Status: StatusError, Message: err.Error()}
	}
	logger.Debug("admin request", "action", req.Action, "bundle_id", req.BundleID)
	return AdminResponse{Status: StatusOK, Paused: status.Paused, State: status}
}

